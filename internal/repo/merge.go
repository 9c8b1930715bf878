package repo

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/watchloop/gitwatch/internal/apperrors"
)

// IsUpdatable runs the merge analysis of spec.md §4.3: true on fast-forward,
// false on up-to-date, MergeConflict otherwise (covering both "fetched is
// behind HEAD" and "the two histories have diverged").
func (r *Repository) IsUpdatable(fetched *Fetched) (bool, error) {
	headHash := plumbing.NewHash(r.Identity.CommitSHA)
	if headHash == fetched.Commit.Hash {
		return false, nil
	}

	headCommit, err := r.GoGit.CommitObject(headHash)
	if err != nil {
		return false, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, err)
	}

	isAncestor, err := headCommit.IsAncestor(fetched.Commit)
	if err != nil {
		return false, fmt.Errorf("%w: %s", apperrors.ErrMergeConflict, err)
	}
	if isAncestor {
		return true, nil
	}
	return false, apperrors.ErrMergeConflict
}
