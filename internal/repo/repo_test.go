package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/credentials"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// pair is a bare "upstream" repository and a clone of it tracking "master",
// the same fixture shape as the teacher's internal/gittest helper,
// retargeted to exercise fetch/fast-forward/tag scenarios.
type pair struct {
	upstreamDir string
	cloneDir    string
	clone       *git.Repository
}

func newPair(t *testing.T) *pair {
	t.Helper()

	upstreamDir := t.TempDir()
	upstream, err := git.PlainInit(upstreamDir, true)
	require.NoError(t, err)

	cloneDir := t.TempDir()
	clone, err := git.PlainClone(cloneDir, false, &git.CloneOptions{URL: upstreamDir})
	require.NoError(t, err)
	_ = upstream

	commitFile(t, clone, cloneDir, "seed.txt", "seed")
	pushHead(t, clone)

	return &pair{upstreamDir: upstreamDir, cloneDir: cloneDir, clone: clone}
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) plumbing.Hash {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)
	return hash
}

func pushHead(t *testing.T, repo *git.Repository) {
	t.Helper()
	err := repo.Push(&git.PushOptions{RefSpecs: []config.RefSpec{
		"refs/heads/master:refs/heads/master",
	}})
	require.NoError(t, err)
}

func TestOpenAndIdentity(t *testing.T) {
	p := newPair(t)

	r, err := Open(p.cloneDir)
	require.NoError(t, err)
	require.Equal(t, "master", r.Identity.BranchName)
	require.Equal(t, "origin", r.Identity.RemoteName)
	require.Equal(t, p.upstreamDir, r.Identity.RemoteURL)
}

func TestOpenFailsOnNonRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	require.ErrorIs(t, err, apperrors.ErrNotARepository)
}

func TestFastForwardPushMode(t *testing.T) {
	p := newPair(t)

	r, err := Open(p.cloneDir)
	require.NoError(t, err)
	before := r.Identity.CommitSHA

	// Advance upstream from a second, independent clone.
	otherDir := t.TempDir()
	other, err := git.PlainClone(otherDir, false, &git.CloneOptions{URL: p.upstreamDir})
	require.NoError(t, err)
	commitFile(t, other, otherDir, "two.txt", "two")
	pushHead(t, other)

	cc := ctxmap.New()
	result, err := r.Check(context.Background(), OnPush{}, credentials.Options{}, cc)
	require.NoError(t, err)
	require.True(t, result.Advanced)
	require.Equal(t, "branch", result.RefType)
	require.Equal(t, before, result.BeforeSHA)
	require.NotEqual(t, before, result.AfterSHA)

	branch, _ := cc.Get(ctxmap.KeyBranchName)
	require.Equal(t, "master", branch)
	refType, _ := cc.Get(ctxmap.KeyRefType)
	require.Equal(t, "branch", refType)
}

func TestUpToDateReturnsNotAdvanced(t *testing.T) {
	p := newPair(t)
	r, err := Open(p.cloneDir)
	require.NoError(t, err)

	cc := ctxmap.New()
	result, err := r.Check(context.Background(), OnPush{}, credentials.Options{}, cc)
	require.NoError(t, err)
	require.False(t, result.Advanced)
}

func TestTagModeWithGlob(t *testing.T) {
	p := newPair(t)
	r, err := Open(p.cloneDir)
	require.NoError(t, err)

	otherDir := t.TempDir()
	other, err := git.PlainClone(otherDir, false, &git.CloneOptions{URL: p.upstreamDir})
	require.NoError(t, err)
	commitFile(t, other, otherDir, "release.txt", "release content")
	pushHead(t, other)

	otherWt, err := other.Worktree()
	require.NoError(t, err)
	head, err := other.Head()
	require.NoError(t, err)
	_, err = other.CreateTag("v1.2.3", head.Hash(), &git.CreateTagOptions{
		Message: "release",
		Tagger:  &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	require.NoError(t, other.Push(&git.PushOptions{RefSpecs: []config.RefSpec{
		"refs/tags/v1.2.3:refs/tags/v1.2.3",
	}}))
	_ = otherWt

	cc := ctxmap.New()
	result, err := r.Check(context.Background(), OnTag{Glob: "v*"}, credentials.Options{}, cc)
	require.NoError(t, err)
	require.True(t, result.Advanced)
	require.Equal(t, "tag", result.RefType)
	require.Equal(t, "v1.2.3", result.TagName)

	tagName, _ := cc.Get(ctxmap.KeyCommitTagName)
	require.Equal(t, "v1.2.3", tagName)
}

func TestTagModeNonMatchingGlobYieldsNoAdvance(t *testing.T) {
	p := newPair(t)
	r, err := Open(p.cloneDir)
	require.NoError(t, err)

	otherDir := t.TempDir()
	other, err := git.PlainClone(otherDir, false, &git.CloneOptions{URL: p.upstreamDir})
	require.NoError(t, err)
	commitFile(t, other, otherDir, "release.txt", "release content")
	pushHead(t, other)
	head, err := other.Head()
	require.NoError(t, err)
	_, err = other.CreateTag("v1.0.0", head.Hash(), nil)
	require.NoError(t, err)
	require.NoError(t, other.Push(&git.PushOptions{RefSpecs: []config.RefSpec{
		"refs/tags/v1.0.0:refs/tags/v1.0.0",
	}}))

	cc := ctxmap.New()
	result, err := r.Check(context.Background(), OnTag{Glob: "release-*"}, credentials.Options{}, cc)
	require.NoError(t, err)
	require.False(t, result.Advanced)
}

func TestPullRefusesWhenWorkingTreeDirty(t *testing.T) {
	p := newPair(t)
	r, err := Open(p.cloneDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(p.cloneDir, "dirty.txt"), []byte("uncommitted"), 0o600))

	err = r.Pull(plumbing.NewHash(r.Identity.CommitSHA))
	require.ErrorIs(t, err, apperrors.ErrDirtyWorkingTree)
}
