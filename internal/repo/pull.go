package repo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/watchloop/gitwatch/internal/apperrors"
)

// Pull refuses with DirtyWorkingTree if the worktree is not clean (ignored
// entries excluded — go-git's Status() already omits them), then moves the
// local branch ref to target and force-checks it out. Any failure from this
// point on is reported as FailedSettingHead.
func (r *Repository) Pull(target plumbing.Hash) error {
	wt, err := r.GoGit.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrFailedSettingHead, err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrFailedSettingHead, err)
	}
	if !status.IsClean() {
		return apperrors.ErrDirtyWorkingTree
	}

	branchRef := plumbing.ReferenceName(r.Identity.RefName)
	newRef := plumbing.NewHashReference(branchRef, target)
	if err := r.GoGit.Storer.SetReference(newRef); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrFailedSettingHead, shortErr(target, err))
	}

	if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrFailedSettingHead, shortErr(target, err))
	}

	r.Identity.CommitSHA = target.String()
	r.Identity.CommitShortSHA = shortSHA(r.Identity.CommitSHA)
	return nil
}

func shortErr(target plumbing.Hash, err error) string {
	return fmt.Sprintf("%s: %s", shortSHA(target.String()), err)
}
