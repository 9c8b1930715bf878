package reactor

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

func TestScriptRunSuccess(t *testing.T) {
	s, err := NewScript(t.TempDir(), "true", false)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), ctxmap.New()))
}

func TestScriptRunNonZeroExit(t *testing.T) {
	s, err := NewScript(t.TempDir(), "false", false)
	require.NoError(t, err)
	err = s.Run(context.Background(), ctxmap.New())
	assert.ErrorIs(t, err, apperrors.ErrNonZeroExit)
}

func TestScriptRunMissingCommandFails(t *testing.T) {
	s, err := NewScript(t.TempDir(), "definitely-not-a-real-binary-xyz", false)
	require.NoError(t, err)
	err = s.Run(context.Background(), ctxmap.New())
	assert.ErrorIs(t, err, apperrors.ErrScriptFailure)
}

func TestScriptOutputIsLoggedTaggedByDisplayName(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	applog.SetVerbosity(3)
	defer applog.SetOutput(os.Stderr)

	s, err := NewScript(t.TempDir(), "echo hello-from-script", false)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), ctxmap.New()))

	assert.Contains(t, buf.String(), "[echo]")
	assert.Contains(t, buf.String(), "hello-from-script")
}

func TestScriptEnvCarriesContextKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewScript(dir, "env", false)
	require.NoError(t, err)

	cc := ctxmap.New()
	cc.Set(ctxmap.KeyBranchName, "main")

	var buf bytes.Buffer
	applog.SetOutput(&buf)
	applog.SetVerbosity(3)
	defer applog.SetOutput(os.Stderr)

	require.NoError(t, s.Run(context.Background(), cc))
	assert.Contains(t, buf.String(), "GW_GIT_BRANCH_NAME=main")
	assert.Contains(t, buf.String(), "GW_ACTION_NAME=SCRIPT")
}
