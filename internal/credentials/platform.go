package credentials

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// tryPlatformCredentialHelper shells out to "git credential fill", the same
// way a real git client resolves the platform credential store (macOS
// Keychain, Windows Credential Manager, libsecret, …). This is the one
// place gitwatch still shells out to the git binary, grounded on the
// teacher's internal/command/cmd.go exec.Command pattern, because no Go
// library in the retrieved pack wraps the platform credential-helper
// protocol.
func tryPlatformCredentialHelper() (*http.BasicAuth, bool) {
	cmd := exec.Command("git", "credential", "fill")
	cmd.Stdin = strings.NewReader("protocol=https\n\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, false
	}

	var username, password string
	for _, line := range strings.Split(out.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "username="):
			username = strings.TrimPrefix(line, "username=")
		case strings.HasPrefix(line, "password="):
			password = strings.TrimPrefix(line, "password=")
		}
	}
	if username == "" && password == "" {
		return nil, false
	}
	return &http.BasicAuth{Username: username, Password: password}, true
}
