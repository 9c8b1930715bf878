// Package repo is the repository engine (spec.md §4.3, component C): it
// opens a working copy, extracts its identity, fetches from its upstream,
// decides whether the local branch can fast-forward, discovers matching
// tags, and performs the actual ref move + checkout.
//
// Generalised from the teacher's internal/git + internal/command packages:
// the teacher shells out to the git(1) binary for nearly everything
// (internal/git/branch.go's "git for-each-ref", internal/command/fetch.go's
// fallback to "git fetch"). spec.md needs in-process merge-analysis and
// tag-ancestry walking, so this package drives go-git/v5 natively instead.
package repo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/watchloop/gitwatch/internal/apperrors"
)

// Repository wraps an open go-git repository together with the identity
// derived from it. It is owned by a single check at a time (spec.md §5:
// "the repository handle is owned by the check and not shared across
// threads").
type Repository struct {
	AbsPath  string
	GoGit    *git.Repository
	Identity Identity
}

// Identity is the repository identity of spec.md §3, derived fresh on
// every Open/check.
type Identity struct {
	BranchName string // short name, e.g. "main"
	RefName    string // fully qualified, e.g. "refs/heads/main"

	CommitSHA      string
	CommitShortSHA string

	RemoteName string
	RemoteURL  string
}

// Open opens the repository at dir and immediately extracts its identity,
// propagating any failure — this makes misconfiguration surface before the
// first trigger fires (spec.md §4.3 invariant).
func Open(dir string) (*Repository, error) {
	gg, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotARepository, err)
	}

	r := &Repository{AbsPath: dir, GoGit: gg}
	identity, err := r.identity()
	if err != nil {
		return nil, err
	}
	r.Identity = identity
	return r, nil
}

// identity derives the Identity struct, or one of
// NoHead/NotOnABranch/NoRemoteForBranch.
func (r *Repository) identity() (Identity, error) {
	head, err := r.GoGit.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return Identity{}, apperrors.ErrNoHead
		}
		return Identity{}, fmt.Errorf("%w: %s", apperrors.ErrNoHead, err)
	}

	if head.Name() == plumbing.HEAD || !head.Name().IsBranch() {
		return Identity{}, apperrors.ErrNotOnABranch
	}

	branchName := head.Name().Short()
	branchConfig, err := r.GoGit.Branch(branchName)
	if err != nil {
		return Identity{}, apperrors.ErrNoRemoteForBranch
	}
	if branchConfig.Remote == "" {
		return Identity{}, apperrors.ErrNoRemoteForBranch
	}

	remote, err := r.GoGit.Remote(branchConfig.Remote)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", apperrors.ErrNoRemoteForBranch, err)
	}
	urls := remote.Config().URLs
	var url string
	if len(urls) > 0 {
		url = urls[0]
	}

	sha := head.Hash().String()
	return Identity{
		BranchName:     branchName,
		RefName:        string(head.Name()),
		CommitSHA:      sha,
		CommitShortSHA: shortSHA(sha),
		RemoteName:     branchConfig.Remote,
		RemoteURL:      url,
	}, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
