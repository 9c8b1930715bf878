package repo

import (
	"context"

	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/credentials"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// CheckResult reports what Check found, for logging and for reactors that
// want it reflected in their environment via cc.
type CheckResult struct {
	Advanced  bool
	RefType   string // "branch" | "tag"
	RefName   string
	BeforeSHA string
	AfterSHA  string
	TagName   string // only set in tag mode
}

var log = applog.Tagged("repo")

// Check runs one full cycle: re-derive identity, fetch, decide whether the
// fetched commit (or, in tag mode, the newest matching tag) represents an
// advance, and if so pull it. cc is populated with GIT_* keys exactly per
// spec.md §4.3's pseudocode, both before and after the decision.
func (r *Repository) Check(ctx context.Context, policy UpdatePolicy, credOpts credentials.Options, cc *ctxmap.Context) (*CheckResult, error) {
	identity, err := r.identity()
	if err != nil {
		return nil, err
	}
	r.Identity = identity

	cc.Set(ctxmap.KeyCheckName, ctxmap.CheckNameGit)
	cc.Set(ctxmap.KeyBranchName, identity.BranchName)
	cc.Set(ctxmap.KeyBeforeSHA, identity.CommitSHA)
	cc.Set(ctxmap.KeyBeforeShortSHA, identity.CommitShortSHA)
	cc.Set(ctxmap.KeyRemoteName, identity.RemoteName)
	cc.Set(ctxmap.KeyRemoteURL, identity.RemoteURL)

	fetched, err := r.Fetch(ctx, credOpts)
	if err != nil {
		return nil, err
	}

	updatable, err := r.IsUpdatable(fetched)
	if err != nil {
		return nil, err
	}
	if !updatable {
		log.Debugf("%s is up to date at %s", identity.BranchName, identity.CommitShortSHA)
		return &CheckResult{Advanced: false}, nil
	}

	switch p := policy.(type) {
	case OnPush:
		return r.checkOnPush(fetched, cc)
	case OnTag:
		return r.checkOnTag(fetched, p.Glob, cc)
	default:
		return &CheckResult{Advanced: false}, nil
	}
}

func (r *Repository) checkOnPush(fetched *Fetched, cc *ctxmap.Context) (*CheckResult, error) {
	before := r.Identity.CommitSHA
	if err := r.Pull(fetched.Commit.Hash); err != nil {
		return nil, err
	}

	cc.Set(ctxmap.KeyRefType, "branch")
	cc.Set(ctxmap.KeyRefName, r.Identity.RefName)
	cc.Set(ctxmap.KeyCommitSHA, r.Identity.CommitSHA)
	cc.Set(ctxmap.KeyCommitShortSHA, r.Identity.CommitShortSHA)

	log.Infof("%s advanced %s -> %s", r.Identity.BranchName, shortSHA(before), r.Identity.CommitShortSHA)
	return &CheckResult{
		Advanced:  true,
		RefType:   "branch",
		RefName:   r.Identity.RefName,
		BeforeSHA: before,
		AfterSHA:  r.Identity.CommitSHA,
	}, nil
}

func (r *Repository) checkOnTag(fetched *Fetched, glob string, cc *ctxmap.Context) (*CheckResult, error) {
	tags, err := r.FindTags(fetched, glob)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		log.Debugf("no new tag matching %q", glob)
		return &CheckResult{Advanced: false}, nil
	}

	newest := tags[len(tags)-1]
	before := r.Identity.CommitSHA
	if err := r.Pull(newest.Commit.Hash); err != nil {
		return nil, err
	}

	refName := "refs/tags/" + newest.Name
	cc.Set(ctxmap.KeyRefType, "tag")
	cc.Set(ctxmap.KeyRefName, refName)
	cc.Set(ctxmap.KeyCommitSHA, r.Identity.CommitSHA)
	cc.Set(ctxmap.KeyCommitShortSHA, r.Identity.CommitShortSHA)
	cc.Set(ctxmap.KeyCommitTagName, newest.Name)

	log.Infof("%s tag %s advanced %s -> %s", r.Identity.BranchName, newest.Name, shortSHA(before), r.Identity.CommitShortSHA)
	return &CheckResult{
		Advanced:  true,
		RefType:   "tag",
		RefName:   refName,
		BeforeSHA: before,
		AfterSHA:  r.Identity.CommitSHA,
		TagName:   newest.Name,
	}, nil
}
