// Package bootstrap performs the idempotent, first-run host-trust setup of
// spec.md §6 ("Persisted state"): creating ~/.ssh and known_hosts if
// absent, appending an operator-supplied host key line, and marking the
// working directory safe for git. Grounded on the teacher's
// internal/app/files.go idempotent create-if-absent idiom, retargeted from
// directory scanning onto trust-material bootstrap.
package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
)

// commonHostKeys seeds known_hosts with widely-used public git hosts. Only
// written when SeedKnownHosts is explicitly requested (spec.md §9 open
// question: this is opt-in, never a silent default).
var commonHostKeys = []string{
	"github.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl",
	"gitlab.com ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIAfuCHKVTjquxvt6CM6tdG4SLp1Btn/nOeHHE5UOzRdf",
	"bitbucket.org ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIIazEu89wgQZ4bqs3d63QSMzYVa0MuJ2e2gKTKqu+UUO",
}

// Options controls what bootstrap does, sourced from spec.md §6 CLI flags.
type Options struct {
	HomeDir        string // overrides os.UserHomeDir(), used by tests
	WorkingDir     string // directory being watched, to mark as "safe"
	KnownHostLine  string // operator-supplied --git-known-host line
	SeedKnownHosts bool   // opt-in: seed commonHostKeys
}

// Run performs every bootstrap step, each individually idempotent.
func Run(opts Options) error {
	home := opts.HomeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		home = h
	}

	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		return err
	}

	knownHostsPath := filepath.Join(sshDir, "known_hosts")
	if err := ensureKnownHosts(knownHostsPath, opts); err != nil {
		return err
	}

	if opts.WorkingDir != "" {
		if err := markDirectorySafe(home, opts.WorkingDir); err != nil {
			return err
		}
	}

	return nil
}

func ensureKnownHosts(path string, opts Options) error {
	existing, err := readLines(path)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, line := range existing {
		have[line] = true
	}

	var toAppend []string
	if opts.SeedKnownHosts {
		for _, line := range commonHostKeys {
			if !have[line] {
				toAppend = append(toAppend, line)
				have[line] = true
			}
		}
	}
	if opts.KnownHostLine != "" && !have[opts.KnownHostLine] {
		toAppend = append(toAppend, opts.KnownHostLine)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, line := range toAppend {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// markDirectorySafe writes a minimal git config entry marking workingDir as
// a safe.directory, the same idempotent append-if-absent shape as
// ensureKnownHosts.
func markDirectorySafe(home, workingDir string) error {
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return err
	}
	configPath := filepath.Join(home, ".gitconfig")
	entry := "\tdirectory = " + abs + "\n"

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	content := string(data)
	if strings.Contains(content, entry) {
		return nil
	}

	var block string
	if strings.Contains(content, "[safe]") {
		// Appended after the existing [safe] header is good enough; git
		// tolerates repeated directory = lines within the same section.
		block = strings.Replace(content, "[safe]\n", "[safe]\n\tdirectory = "+abs+"\n", 1)
	} else {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		block = content + "[safe]\n\tdirectory = " + abs + "\n"
	}

	return os.WriteFile(configPath, []byte(block), 0o600)
}
