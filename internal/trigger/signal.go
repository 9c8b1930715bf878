package trigger

import "github.com/watchloop/gitwatch/internal/ctxmap"

// Signal listens for OS termination signals. The first signal requests
// shutdown; a second signal arriving within a brief grace window exits the
// process immediately with the signal number as exit code (spec.md §4.6).
// On non-Unix platforms this trigger is a no-op.
type Signal struct{}

func (Signal) Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	return listenSignal(tx, done)
}
