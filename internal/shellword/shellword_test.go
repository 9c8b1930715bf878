package shellword

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchloop/gitwatch/internal/apperrors"
)

func TestSplitBasic(t *testing.T) {
	words, err := Split(`echo hello world`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello", "world"}, words)
}

func TestSplitQuoting(t *testing.T) {
	words, err := Split(`echo "hello world" 'single quoted'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello world", "single quoted"}, words)
}

func TestSplitEscapes(t *testing.T) {
	words, err := Split(`echo foo\ bar`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "foo bar"}, words)
}

func TestSplitUnterminatedQuoteFails(t *testing.T) {
	_, err := Split(`echo "unterminated`)
	assert.Error(t, err)
}

func TestSplitEmpty(t *testing.T) {
	words, err := Split("   ")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestBuildNonShell(t *testing.T) {
	name, inv, err := Build("echo test", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "echo", name)
	assert.Equal(t, "echo", inv.Path)
	assert.Equal(t, []string{"test"}, inv.Args)
}

func TestBuildShellWrapsRaw(t *testing.T) {
	name, inv, err := Build("echo $HOME | grep x", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "echo", name)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "cmd.exe", inv.Path)
		assert.Equal(t, []string{"/C", "echo $HOME | grep x"}, inv.Args)
	} else {
		assert.Equal(t, "/bin/sh", inv.Path)
		assert.Equal(t, []string{"-c", "echo $HOME | grep x"}, inv.Args)
	}
}

func TestBuildEmptyFails(t *testing.T) {
	_, _, err := Build("   ", false, nil)
	assert.ErrorIs(t, err, apperrors.ErrCommandParse)
}

func TestBuildWarnsOnShellMetacharacters(t *testing.T) {
	var warned string
	warn := func(format string, args ...any) {
		warned = format
	}
	_, _, err := Build("echo $HOME", false, warn)
	require.NoError(t, err)
	assert.NotEmpty(t, warned)
}

func TestBuildNoWarningWhenClean(t *testing.T) {
	called := false
	warn := func(format string, args ...any) { called = true }
	_, _, err := Build("echo hello", false, warn)
	require.NoError(t, err)
	assert.False(t, called)
}
