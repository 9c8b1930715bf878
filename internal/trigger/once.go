package trigger

import "github.com/watchloop/gitwatch/internal/ctxmap"

// Once emits exactly one check request, then immediately requests shutdown.
// Used for --once one-shot invocations (spec.md §4.6).
type Once struct{}

func (Once) Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	cc := ctxmap.New()
	cc.Set(ctxmap.KeyTriggerName, ctxmap.TriggerOnce)

	select {
	case tx <- cc:
	case <-done:
		return nil
	}

	select {
	case tx <- nil:
	case <-done:
	}
	return nil
}
