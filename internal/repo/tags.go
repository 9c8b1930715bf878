package repo

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Tag is a single matched tag, with enough detail for Check to report
// GIT_COMMIT_TAG_NAME and to pull the commit it points at.
type Tag struct {
	Name   string
	Commit *object.Commit
	when   time.Time
}

// FindTags collects every tag matching glob whose commit is reachable from
// fetched but not from the repository's current HEAD, in chronological
// order (oldest first) — the caller takes the last entry as the newest
// matching tag (spec.md §4.3).
func (r *Repository) FindTags(fetched *Fetched, glob string) ([]Tag, error) {
	headHash := plumbing.NewHash(r.Identity.CommitSHA)
	headCommit, err := r.GoGit.CommitObject(headHash)
	if err != nil {
		return nil, err
	}

	iter, err := r.GoGit.Tags()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var matched []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		ok, matchErr := filepath.Match(glob, name)
		if matchErr != nil || !ok {
			return nil
		}

		commit, when, resolveErr := resolveTagTarget(r, ref.Hash())
		if resolveErr != nil {
			return nil
		}

		reachableFromFetched, err := commit.IsAncestor(fetched.Commit)
		if err != nil {
			return nil
		}
		if commit.Hash != fetched.Commit.Hash && !reachableFromFetched {
			return nil
		}
		reachableFromHead, err := commit.IsAncestor(headCommit)
		if err == nil && (commit.Hash == headCommit.Hash || reachableFromHead) {
			return nil
		}

		matched = append(matched, Tag{Name: name, Commit: commit, when: when})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].when.Equal(matched[j].when) {
			return matched[i].when.Before(matched[j].when)
		}
		return tieBreak(matched[i], matched[j])
	})
	return matched, nil
}

// resolveTagTarget dereferences an annotated tag object to the commit it
// points at, using the tagger time; lightweight tags use the commit's own
// committer time.
func resolveTagTarget(r *Repository, hash plumbing.Hash) (*object.Commit, time.Time, error) {
	if tagObj, err := r.GoGit.TagObject(hash); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return nil, time.Time{}, err
		}
		return commit, tagObj.Tagger.When, nil
	}
	commit, err := r.GoGit.CommitObject(hash)
	if err != nil {
		return nil, time.Time{}, err
	}
	return commit, commit.Committer.When, nil
}

// tieBreak orders two tags that land on the same timestamp (most often
// because they point at the same commit): higher semver wins, falling back
// to lexical tag-name order when either tag fails to parse as semver.
func tieBreak(a, b Tag) bool {
	va, errA := semver.NewVersion(a.Name)
	vb, errB := semver.NewVersion(b.Name)
	if errA == nil && errB == nil {
		return va.LessThan(vb)
	}
	return a.Name < b.Name
}
