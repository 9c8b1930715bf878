package repo

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/credentials"
)

// Fetched is the annotated commit spec.md §4.3 calls FETCH_HEAD: the tip of
// the remote-tracking branch after a successful fetch.
type Fetched struct {
	Commit *object.Commit
}

// Fetch authenticates via credOpts (spec.md §4.7), fetches the single
// configured branch, and requests automatic tag download. git.NoErrAlreadyUpToDate
// is not surfaced as an error: it simply means the remote-tracking ref did
// not move, which IsUpdatable later reports as "not updatable".
func (r *Repository) Fetch(ctx context.Context, credOpts credentials.Options) (*Fetched, error) {
	protocol := credentials.ProtocolOf(r.Identity.RemoteURL)
	attempts := credentials.NewAttempts(credOpts)

	refSpec := config.RefSpec(fmt.Sprintf(
		"+refs/heads/%s:refs/remotes/%s/%s",
		r.Identity.BranchName, r.Identity.RemoteName, r.Identity.BranchName,
	))

	var lastErr error
	for {
		auth, attemptErr := attempts.Next(protocol, true)
		if attemptErr != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, lastErr)
			}
			return nil, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, attemptErr)
		}

		err := r.GoGit.Fetch(&git.FetchOptions{
			RemoteName: r.Identity.RemoteName,
			RefSpecs:   []config.RefSpec{refSpec},
			Auth:       auth,
			Tags:       git.AllTags,
		})
		if err == nil || err == git.NoErrAlreadyUpToDate {
			break
		}
		if err == transport.ErrAuthenticationRequired || err == transport.ErrAuthorizationFailed {
			lastErr = err
			continue
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, err)
	}

	trackingRef := plumbing.NewRemoteReferenceName(r.Identity.RemoteName, r.Identity.BranchName)
	ref, err := r.GoGit.Reference(trackingRef, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, err)
	}
	commit, err := r.GoGit.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFetchFailed, err)
	}
	return &Fetched{Commit: commit}, nil
}
