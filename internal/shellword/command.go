// Package shellword is the command factory (spec.md §4.2): it turns a raw
// user command string into an invocation descriptor, deciding whether to
// wrap it in the platform shell.
package shellword

import (
	"regexp"
	"runtime"

	"github.com/watchloop/gitwatch/internal/apperrors"
)

// Invocation is the descriptor a reactor spawns: Path plus Args, ready to
// pass to exec.Command.
type Invocation struct {
	Path string
	Args []string
}

var shellMetacharacters = []*regexp.Regexp{
	regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`), // $NAME
	regexp.MustCompile(`\$\{[^}]*\}`),              // ${...}
	regexp.MustCompile(` \| `),
	regexp.MustCompile(` && `),
	regexp.MustCompile(` \|\| `),
}

// Warner receives the heuristic warning produced when a non-shell command
// looks like it wanted a shell. Reactor construction passes in applog.Warnf
// (or an equivalent) so this package has no direct logging dependency.
type Warner func(format string, args ...any)

// Build parses raw into a display name and an invocation descriptor.
//
//  1. raw is lexed with POSIX-shell-style rules; an empty or malformed
//     result fails with apperrors.ErrCommandParse.
//  2. If runsInShell, the invocation executes raw verbatim through the
//     platform shell ("/bin/sh -c" on Unix, "cmd.exe /C" on Windows).
//  3. Otherwise the invocation is argv[0] with argv[1:], and if raw looks
//     like it wanted a shell (contains $NAME, ${...}, " | ", " && ", or
//     " || ") warn sends a heuristic warning — Build still succeeds.
//
// display_name is always argv[0] of the lexed words, regardless of shell
// mode, matching spec.md §4.2's result contract.
func Build(raw string, runsInShell bool, warn Warner) (displayName string, inv Invocation, err error) {
	words, lexErr := Split(raw)
	if lexErr != nil || len(words) == 0 {
		return "", Invocation{}, apperrors.ErrCommandParse
	}
	displayName = words[0]

	if runsInShell {
		shell, flag := platformShell()
		return displayName, Invocation{Path: shell, Args: []string{flag, raw}}, nil
	}

	if warn != nil && looksLikeItWantsAShell(raw) {
		warn("command %q is not running in a shell but contains shell metacharacters", raw)
	}

	return displayName, Invocation{Path: words[0], Args: words[1:]}, nil
}

func platformShell() (path string, flag string) {
	if runtime.GOOS == "windows" {
		return "cmd.exe", "/C"
	}
	return "/bin/sh", "-c"
}

func looksLikeItWantsAShell(raw string) bool {
	for _, re := range shellMetacharacters {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}
