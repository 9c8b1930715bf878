package reactor

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

func TestNewProcessRejectsUnknownSignal(t *testing.T) {
	_, err := NewProcess(t.TempDir(), "sleep 1", false, 1, "BOGUS", time.Second)
	assert.ErrorIs(t, err, apperrors.ErrSignalParseFailure)
}

func TestNewProcessRejectsUnparsableCommand(t *testing.T) {
	_, err := NewProcess(t.TempDir(), "'unterminated", false, 1, "TERM", time.Second)
	assert.ErrorIs(t, err, apperrors.ErrCommandParse)
}

func TestProcessStartStop(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	applog.SetVerbosity(3)
	defer applog.SetOutput(os.Stderr)

	p, err := NewProcess(t.TempDir(), "sleep 5", false, 3, "TERM", 2*time.Second)
	require.NoError(t, err)

	require.NoError(t, p.Start(ctxmap.New()))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, p.Stop())
	p.Wait()
}

func TestProcessRestartsOnUnsupervisedExit(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	applog.SetVerbosity(3)
	defer applog.SetOutput(os.Stderr)

	p, err := NewProcess(t.TempDir(), "true", false, 2, "TERM", time.Second)
	require.NoError(t, err)

	require.NoError(t, p.Start(ctxmap.New()))
	p.Wait()

	assert.Contains(t, buf.String(), "retries exhausted")
}

func TestProcessStopIsNoopWhenNotRunning(t *testing.T) {
	p, err := NewProcess(t.TempDir(), "sleep 1", false, 1, "TERM", time.Second)
	require.NoError(t, err)
	require.NoError(t, p.Stop())
}
