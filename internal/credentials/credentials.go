// Package credentials implements the progressive credential helper of
// spec.md §4.7: a stateful, single-pass-per-class iterator that the
// repository engine drives while retrying a fetch against successive
// candidate authentication methods.
//
// go-git/v5's Fetch takes one transport.AuthMethod per call rather than a
// libgit2-style repeated callback, so the state machine here is driven from
// the outside: internal/repo retries Fetch, asking Attempts.Next for the
// next candidate each time the previous one is rejected with an
// authentication error, exactly mirroring the teacher's
// internal/command/fetch.go protocol-dependent auth selection
// (git.AuthProtocolHTTP branch) generalised to cover SSH as well.
package credentials

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/sync/semaphore"
)

// agentDial bounds ssh-agent socket dials to one in flight at a time: the
// agent is a single shared unix socket and the go-git client has no dial
// pooling of its own.
var agentDial = semaphore.NewWeighted(1)

// Protocol identifies the transport scheme of the remote URL.
type Protocol uint8

const (
	ProtocolUnknown Protocol = iota
	ProtocolSSH
	ProtocolHTTP
)

// ProtocolOf classifies a remote URL into SSH or HTTP(S) for the purpose of
// deciding which credential classes are even worth trying.
func ProtocolOf(remoteURL string) Protocol {
	switch {
	case hasPrefix(remoteURL, "http://"), hasPrefix(remoteURL, "https://"):
		return ProtocolHTTP
	case hasPrefix(remoteURL, "ssh://"), hasPrefix(remoteURL, "git@"):
		return ProtocolSSH
	default:
		return ProtocolUnknown
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Options carries the operator-supplied credential material from spec.md §6:
// --ssh-key, --git-username, --git-token.
type Options struct {
	SSHKeyPath  string
	GitUsername string
	GitToken    string

	// HomeDir overrides the default-SSH-key-search home directory; tests set
	// this to a temp dir. Empty means os.UserHomeDir().
	HomeDir string
}

var defaultSSHKeyNames = []string{
	"id_dsa", "id_ecdsa", "id_ecdsa_sk", "id_ed25519", "id_ed25519_sk", "id_rsa",
}

// ErrExhausted is returned once every credential class for the current mode
// has been tried and none worked.
var ErrExhausted = fmt.Errorf("no remaining credential candidates")

// Attempts is the single-pass-per-class state machine. A fresh Attempts
// must be created for every fetch (spec.md §4.7: "each class is tried at
// most once in each mode per fetch").
type Attempts struct {
	opts Options

	triedUsernameGit  bool
	triedUsernameNone bool

	triedSSHAgent    bool
	sshKeyCandidates []string
	sshKeyIndex      int

	triedExplicitHTTPS bool
	triedCredHelper    bool

	triedDefault bool
}

// NewAttempts builds an Attempts iterator seeded with the operator's
// supplied credential options.
func NewAttempts(opts Options) *Attempts {
	return &Attempts{opts: opts, sshKeyCandidates: resolveSSHKeyCandidates(opts)}
}

func resolveSSHKeyCandidates(opts Options) []string {
	if opts.SSHKeyPath != "" {
		return []string{opts.SSHKeyPath}
	}
	home := opts.HomeDir
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	if home == "" {
		return nil
	}
	var candidates []string
	for _, name := range defaultSSHKeyNames {
		p := filepath.Join(home, ".ssh", name)
		if fileExists(p) {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Username yields the next username candidate: "git", then "" (none),
// then exhaustion. spec.md §4.7 point 1.
func (a *Attempts) Username() (string, error) {
	if !a.triedUsernameGit {
		a.triedUsernameGit = true
		return "git", nil
	}
	if !a.triedUsernameNone {
		a.triedUsernameNone = true
		return "", nil
	}
	return "", ErrExhausted
}

// Next returns the next authentication method to try for protocol, or
// ErrExhausted once every applicable class for that protocol has been
// tried. defaultAllowed controls whether a final anonymous/default
// credential is offered as the last resort (spec.md §4.7 point 4).
func (a *Attempts) Next(protocol Protocol, defaultAllowed bool) (transport.AuthMethod, error) {
	switch protocol {
	case ProtocolSSH:
		if method, ok := a.nextSSH(); ok {
			return method, nil
		}
	case ProtocolHTTP:
		if method, ok := a.nextHTTP(); ok {
			return method, nil
		}
	}
	if defaultAllowed && !a.triedDefault {
		a.triedDefault = true
		return nil, nil // nil AuthMethod: go-git falls back to anonymous/default transport behavior.
	}
	return nil, ErrExhausted
}

func (a *Attempts) nextSSH() (transport.AuthMethod, bool) {
	if !a.triedSSHAgent {
		a.triedSSHAgent = true
		user := "git"
		auth, err := dialSSHAgent(user)
		if err == nil {
			return auth, true
		}
		// Agent unavailable: fall through to key-file candidates immediately,
		// still counted as the single SSH-agent attempt for this fetch.
	}
	for a.sshKeyIndex < len(a.sshKeyCandidates) {
		path := a.sshKeyCandidates[a.sshKeyIndex]
		a.sshKeyIndex++
		if auth, err := ssh.NewPublicKeysFromFile("git", path, ""); err == nil {
			return auth, true
		}
	}
	return nil, false
}

// dialSSHAgent serializes access to the ssh-agent socket through agentDial
// so concurrent credential attempts never race the same agent connection.
func dialSSHAgent(user string) (transport.AuthMethod, error) {
	if err := agentDial.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer agentDial.Release(1)
	return ssh.NewSSHAgentAuth(user)
}

func (a *Attempts) nextHTTP() (transport.AuthMethod, bool) {
	if !a.triedExplicitHTTPS && (a.opts.GitUsername != "" || a.opts.GitToken != "") {
		a.triedExplicitHTTPS = true
		return &http.BasicAuth{Username: a.opts.GitUsername, Password: a.opts.GitToken}, true
	}
	if !a.triedCredHelper {
		a.triedCredHelper = true
		if auth, ok := tryPlatformCredentialHelper(); ok {
			return auth, true
		}
		// Remembers failure (credential helper not available / declined) and
		// does not retry it — spec.md §9's single-pass-per-class rule.
	}
	return nil, false
}
