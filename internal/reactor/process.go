package reactor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
	"github.com/watchloop/gitwatch/internal/shellword"
)

// knownStopSignals is the set of signal names the CLI accepts; validated at
// construction time so a typo surfaces as SignalParseFailure before the
// first trigger fires, not on the first restart (spec.md §4.5).
var knownStopSignals = map[string]bool{
	"TERM": true, "INT": true, "HUP": true, "QUIT": true, "USR1": true, "USR2": true,
}

// ProcessState is the three-state machine of spec.md §4.5: Running and
// Restarting both hold a live child in the shared slot, Failed is terminal
// and empties it.
type ProcessState uint8

const (
	StateRunning ProcessState = iota
	StateRestarting
	StateFailed
)

// ManagedProcess owns the lifecycle of a single long-running subprocess:
// restart on demand, survive a bounded number of unsupervised exits. The
// pty-backed output capture is grounded on re-cinq-detergent's
// internal/engine/engine.go invokeAgent pattern; the supervision loop on
// the teacher's internal/command/cmd.go exec/drain shape.
type ManagedProcess struct {
	directory   string
	invocation  shellword.Invocation
	displayName string
	stopSignal  string
	stopTimeout time.Duration
	maxRetries  int
	log         applog.Logger

	mu             sync.RWMutex
	state          ProcessState
	cmd            *exec.Cmd
	triesRemaining int
	stopRequested  bool

	wg sync.WaitGroup
}

// NewProcess parses raw and stopSignalName once; a bad command or signal
// name fails at construction (CommandParseFailure / SignalParseFailure)
// rather than at the first restart.
func NewProcess(directory, raw string, runsInShell bool, maxRetries int, stopSignalName string, stopTimeout time.Duration) (*ManagedProcess, error) {
	displayName, inv, err := shellword.Build(raw, runsInShell, applog.Warnf)
	if err != nil {
		return nil, err
	}
	if !knownStopSignals[strings.ToUpper(stopSignalName)] {
		return nil, apperrors.WithMessage(apperrors.ErrSignalParseFailure, "%q", stopSignalName)
	}
	return &ManagedProcess{
		directory:   directory,
		invocation:  inv,
		displayName: displayName,
		stopSignal:  strings.ToUpper(stopSignalName),
		stopTimeout: stopTimeout,
		maxRetries:  maxRetries,
		log:         applog.Tagged(displayName),
	}, nil
}

// Start spawns the first child and launches the supervision loop that
// handles every subsequent restart on its own, until retries are exhausted
// or Stop is called.
func (p *ManagedProcess) Start(cc *ctxmap.Context) error {
	p.mu.Lock()
	p.triesRemaining = p.maxRetries
	p.mu.Unlock()

	if err := p.spawn(cc); err != nil {
		return err
	}
	p.wg.Add(1)
	go p.supervise(cc)
	return nil
}

// Restart stops the current child (if any) and starts a fresh one with a
// full retry budget — a user-initiated restart, not a crash, so accounting
// resets (spec.md §4.5).
func (p *ManagedProcess) Restart(cc *ctxmap.Context) error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.Start(cc)
}

// Stop is a no-op if the slot is already empty. Otherwise it sends
// stopSignal, polls for exit at one-second granularity up to stopTimeout,
// and force-kills if the deadline passes.
func (p *ManagedProcess) Stop() error {
	p.mu.Lock()
	if p.cmd == nil || p.cmd.Process == nil {
		p.mu.Unlock()
		return nil
	}
	proc := p.cmd.Process
	p.stopRequested = true
	p.mu.Unlock()

	if err := sendStopSignal(proc, p.stopSignal); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrStopFailure, err)
	}

	deadline := time.Now().Add(p.stopTimeout)
	for time.Now().Before(deadline) {
		p.mu.RLock()
		gone := p.cmd == nil
		p.mu.RUnlock()
		if gone {
			return nil
		}
		time.Sleep(time.Second)
	}

	p.mu.RLock()
	stillHere := p.cmd != nil
	p.mu.RUnlock()
	if stillHere {
		p.log.Warnf("stop signal timed out, killing process")
		if err := proc.Kill(); err != nil {
			return fmt.Errorf("%w: %s", apperrors.ErrKillFailed, err)
		}
	}
	return nil
}

func (p *ManagedProcess) spawn(cc *ctxmap.Context) error {
	cmd := exec.Command(p.invocation.Path, p.invocation.Args...)
	cmd.Dir = p.directory
	cmd.Env = processEnv(p.directory)

	ptmx, pts, err := pty.Open()
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrStartFailure, err)
	}
	cmd.Stdout = pts
	cmd.Stderr = pts

	if err := cmd.Start(); err != nil {
		pts.Close()
		ptmx.Close()
		return fmt.Errorf("%w: %s", apperrors.ErrStartFailure, err)
	}
	pts.Close()

	p.mu.Lock()
	p.cmd = cmd
	p.state = StateRunning
	p.stopRequested = false
	p.mu.Unlock()

	p.wg.Add(1)
	go p.drain(ptmx)
	return nil
}

func (p *ManagedProcess) drain(ptmx *os.File) {
	defer p.wg.Done()
	defer ptmx.Close()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("%s: %v", apperrors.ErrMutexPoisoned, r)
		}
	}()

	reader := &lineSplitter{onLine: func(line string) { p.log.Infof("%s", line) }}
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			reader.write(buf[:n])
		}
		if err != nil {
			reader.flush()
			return
		}
	}
}

// supervise owns the retry loop: wait for the current child to exit, decide
// whether to restart, sleep, or fail terminally.
func (p *ManagedProcess) supervise(cc *ctxmap.Context) {
	defer p.wg.Done()
	for {
		p.mu.RLock()
		cmd := p.cmd
		p.mu.RUnlock()
		if cmd == nil {
			return
		}

		waitErr := cmd.Wait()

		p.mu.Lock()
		stopRequested := p.stopRequested
		p.mu.Unlock()

		if stopRequested || terminatedBySignal(waitErr) {
			if stopRequested {
				p.log.Infof("process stopped")
			} else {
				p.log.Infof("process terminated by signal")
			}
			p.mu.Lock()
			p.cmd = nil
			p.mu.Unlock()
			return
		}

		p.mu.Lock()
		remaining := p.triesRemaining
		p.triesRemaining--
		p.mu.Unlock()

		if remaining <= 0 {
			p.log.Errorf("retries exhausted, giving up")
			p.mu.Lock()
			p.cmd = nil
			p.state = StateFailed
			p.mu.Unlock()
			return
		}

		p.mu.Lock()
		p.state = StateRestarting
		p.mu.Unlock()

		p.log.Warnf("process exited unexpectedly, restarting in 100ms (%d tries left)", remaining-1)
		time.Sleep(100 * time.Millisecond)
		if err := p.spawn(cc); err != nil {
			p.log.Errorf("restart failed: %s", err)
			p.mu.Lock()
			p.cmd = nil
			p.state = StateFailed
			p.mu.Unlock()
			return
		}
	}
}

// Wait blocks until the supervision loop and every drain goroutine it spawned
// have returned — used by Stop's callers and by tests.
func (p *ManagedProcess) Wait() {
	p.wg.Wait()
}

// React satisfies the orchestrator's Reactor interface: every declared
// check advance restarts the managed process.
func (p *ManagedProcess) React(ctx context.Context, cc *ctxmap.Context) error {
	return p.Restart(cc)
}

func processEnv(directory string) []string {
	return append(os.Environ(),
		"CI=true",
		"GW_ACTION_NAME=PROCESS",
		"GW_DIRECTORY="+directory,
	)
}

// lineSplitter is the process reactor's equivalent of scanningWriter,
// operating on raw reads from the pty rather than a Writer interface.
type lineSplitter struct {
	leftover string
	onLine   func(string)
}

func (l *lineSplitter) write(p []byte) {
	l.leftover += string(p)
	for {
		idx := strings.IndexByte(l.leftover, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(l.leftover[:idx], "\r")
		l.onLine(line)
		l.leftover = l.leftover[idx+1:]
	}
}

func (l *lineSplitter) flush() {
	if l.leftover != "" {
		l.onLine(l.leftover)
		l.leftover = ""
	}
}
