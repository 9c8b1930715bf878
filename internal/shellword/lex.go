package shellword

import (
	"fmt"
	"strings"
)

// Split lexes s into words using POSIX-shell-style quoting rules: single
// quotes preserve everything literally, double quotes allow backslash
// escapes of `"`, `\`, `$` and backtick, and outside of quotes a backslash
// escapes the following character. Unquoted runs of whitespace separate
// words. This mirrors the word-splitting rules the original Rust
// implementation's shell-words-equivalent lexer applies
// (original_source/src/script/command.rs) — no third-party POSIX lexer is
// wired anywhere in the retrieved example corpus, so this is a hand-rolled
// implementation grounded on that original behavior rather than on a
// dependency.
func Split(s string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		hasWord bool
	)

	const (
		stateNormal = iota
		stateSingle
		stateDouble
	)
	state := stateNormal

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch state {
		case stateNormal:
			switch {
			case c == '\'':
				state = stateSingle
				hasWord = true
			case c == '"':
				state = stateDouble
				hasWord = true
			case c == '\\':
				if i+1 >= len(runes) {
					return nil, fmt.Errorf("trailing backslash")
				}
				i++
				current.WriteRune(runes[i])
				hasWord = true
			case isSpace(c):
				if hasWord {
					words = append(words, current.String())
					current.Reset()
					hasWord = false
				}
			default:
				current.WriteRune(c)
				hasWord = true
			}
		case stateSingle:
			if c == '\'' {
				state = stateNormal
			} else {
				current.WriteRune(c)
			}
		case stateDouble:
			switch c {
			case '"':
				state = stateNormal
			case '\\':
				if i+1 < len(runes) && isDoubleQuoteEscapable(runes[i+1]) {
					i++
					current.WriteRune(runes[i])
				} else {
					current.WriteRune(c)
				}
			default:
				current.WriteRune(c)
			}
		}
	}

	switch state {
	case stateSingle:
		return nil, fmt.Errorf("unterminated single quote")
	case stateDouble:
		return nil, fmt.Errorf("unterminated double quote")
	}

	if hasWord {
		words = append(words, current.String())
	}

	return words, nil
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDoubleQuoteEscapable(c rune) bool {
	switch c {
	case '"', '\\', '$', '`':
		return true
	default:
		return false
	}
}
