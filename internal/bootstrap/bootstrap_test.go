package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCreatesKnownHostsIdempotently(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()

	opts := Options{HomeDir: home, WorkingDir: workDir, KnownHostLine: "example.com ssh-ed25519 AAAA"}
	require.NoError(t, Run(opts))
	require.NoError(t, Run(opts)) // second run must not duplicate content

	data, err := os.ReadFile(filepath.Join(home, ".ssh", "known_hosts"))
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, countOccurrences(content, "example.com ssh-ed25519 AAAA"))
	// Not seeded by default.
	assert.NotContains(t, content, "github.com ssh-ed25519")
}

func TestSeedKnownHostsIsOptIn(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, Run(Options{HomeDir: home, SeedKnownHosts: true}))

	data, err := os.ReadFile(filepath.Join(home, ".ssh", "known_hosts"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "github.com ssh-ed25519")
}

func TestMarkDirectorySafeIdempotent(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()

	require.NoError(t, Run(Options{HomeDir: home, WorkingDir: workDir}))
	require.NoError(t, Run(Options{HomeDir: home, WorkingDir: workDir}))

	data, err := os.ReadFile(filepath.Join(home, ".gitconfig"))
	require.NoError(t, err)
	abs, _ := filepath.Abs(workDir)
	assert.Equal(t, 1, countOccurrences(string(data), abs))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
