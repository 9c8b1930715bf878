// Package reactor holds the two kinds of side effects a check can trigger
// (spec.md §4.4/§4.5): a one-shot script and a supervised long-running
// process.
package reactor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
	"github.com/watchloop/gitwatch/internal/shellword"
)

// Script runs a command to completion on every check advance, interleaving
// its merged output into the log stream tagged by display name (spec.md
// §4.4). A fresh Script is built once at construction time, so a malformed
// invocation fails before the first trigger fires.
type Script struct {
	displayName string
	invocation  shellword.Invocation
	directory   string
	log         applog.Logger
}

// NewScript parses raw once, grounded on the teacher's "parse once at
// construction" idiom so runtime never re-parses a bad command.
func NewScript(directory, raw string, runsInShell bool) (*Script, error) {
	displayName, inv, err := shellword.Build(raw, runsInShell, applog.Warnf)
	if err != nil {
		return nil, err
	}
	return &Script{
		displayName: displayName,
		invocation:  inv,
		directory:   directory,
		log:         applog.Tagged(displayName),
	}, nil
}

// scanningWriter streams each write to a per-line callback while also
// buffering the full output, the same shape as the teacher's
// internal/command/cmd.go scanningWriter, retargeted to log lines instead of
// watching for credential prompts.
type scanningWriter struct {
	buf      bytes.Buffer
	leftover string
	onLine   func(string)
}

func (w *scanningWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.leftover += string(p)
	for {
		idx := strings.IndexByte(w.leftover, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(w.leftover[:idx], "\r")
		w.onLine(line)
		w.leftover = w.leftover[idx+1:]
	}
	return n, err
}

func (w *scanningWriter) flush() {
	if w.leftover != "" {
		w.onLine(w.leftover)
		w.leftover = ""
	}
}

// Run executes the script to completion. Exit code 0 is success; non-zero
// becomes NonZeroExit, spawn failure becomes ScriptFailure.
func (s *Script) Run(ctx context.Context, cc *ctxmap.Context) error {
	cmd := exec.CommandContext(ctx, s.invocation.Path, s.invocation.Args...)
	cmd.Dir = s.directory
	cmd.Env = scriptEnv(s.directory, cc)

	writer := &scanningWriter{onLine: func(line string) {
		s.log.Debugf("%s", line)
	}}
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrScriptFailure, err)
	}
	waitErr := cmd.Wait()
	writer.flush()

	if waitErr == nil {
		return nil
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return apperrors.WithMessage(apperrors.ErrNonZeroExit, "exit code %d", exitErr.ExitCode())
	}
	return fmt.Errorf("%w: %s", apperrors.ErrOutputFailure, waitErr)
}

// React satisfies the orchestrator's Reactor interface.
func (s *Script) React(ctx context.Context, cc *ctxmap.Context) error {
	return s.Run(ctx, cc)
}

// scriptEnv builds CI=true, GW_ACTION_NAME=SCRIPT, GW_DIRECTORY=<dir>, and
// one GW_<KEY>=<value> per populated context key (spec.md §4.4).
func scriptEnv(directory string, cc *ctxmap.Context) []string {
	env := append(os.Environ(),
		"CI=true",
		"GW_ACTION_NAME=SCRIPT",
		"GW_DIRECTORY="+directory,
	)
	return append(env, cc.Env("GW_")...)
}
