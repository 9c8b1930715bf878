// Package orchestrator drives the single-consumer event loop of spec.md
// §4.8: triggers feed a shared channel, and every event is checked, then —
// if the check advanced — run through the declared reactors in order.
// Grounded on the teacher's internal/job/queue.go bounded-concurrency
// dispatch idiom and internal/git/repository.go's buffered eventQueue.
package orchestrator

import (
	"context"

	"github.com/watchloop/gitwatch/internal/apperrors"
	"github.com/watchloop/gitwatch/internal/applog"
	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// queueCapacity mirrors the teacher's small fixed buffer sizing for its own
// event queue.
const queueCapacity = 64

var log = applog.Tagged("orchestrator")

// Checker re-derives identity, fetches, and decides (and, if warranted,
// performs) an update. cmd/gitwatch satisfies it with a CheckFunc wrapping
// (*repo.Repository).Check.
type Checker interface {
	Check(ctx context.Context, cc *ctxmap.Context) (advanced bool, err error)
}

// CheckFunc adapts a plain function to Checker, letting callers bind the
// update policy and credentials once at construction time.
type CheckFunc func(ctx context.Context, cc *ctxmap.Context) (bool, error)

func (f CheckFunc) Check(ctx context.Context, cc *ctxmap.Context) (bool, error) { return f(ctx, cc) }

// Reactor is satisfied by *reactor.Script and *reactor.ManagedProcess.
type Reactor interface {
	React(ctx context.Context, cc *ctxmap.Context) error
}

// Trigger is satisfied by every type in internal/trigger.
type Trigger interface {
	Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error
}

// Orchestrator owns the shared channel, the trigger set, the checker, and
// the declared reactor order.
type Orchestrator struct {
	Triggers []Trigger
	Checker  Checker
	Reactors []Reactor
}

// Run rejects an empty trigger set (NoTriggers, the only startup-fatal
// error), spawns each trigger on its own goroutine, and drains the shared
// channel until a nil context requests shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.Triggers) == 0 {
		return apperrors.ErrNoTriggers
	}

	tx := make(chan *ctxmap.Context, queueCapacity)
	done := make(chan struct{})
	defer close(done)

	for _, trig := range o.Triggers {
		trig := trig
		go func() {
			if err := trig.Listen(tx, done); err != nil {
				log.Errorf("trigger failed: %s", err)
			}
		}()
	}

	for {
		select {
		case cc := <-tx:
			if cc == nil {
				return nil
			}
			o.handle(ctx, cc)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle runs one check-then-reactors cycle. Per-event failures are logged
// and never propagate: only NoTriggers at startup is fatal (spec.md §4.8).
func (o *Orchestrator) handle(ctx context.Context, cc *ctxmap.Context) {
	advanced, err := o.Checker.Check(ctx, cc)
	if err != nil {
		log.Errorf("check failed: %s", err)
		return
	}
	if !advanced {
		return
	}

	for _, r := range o.Reactors {
		if err := r.React(ctx, cc); err != nil {
			log.Errorf("reactor failed: %s", err)
			break
		}
	}
}
