package trigger

import (
	"time"

	"github.com/watchloop/gitwatch/internal/ctxmap"
)

// Periodic emits a check request every Interval. Deadline, if non-zero,
// bounds the trigger's total run time; the final sleep is truncated to
// whatever remains of it.
type Periodic struct {
	Interval time.Duration
	Deadline time.Duration // zero means unbounded
}

// Listen emits at the start of every tick, then sleeps Interval (or less,
// near Deadline) before the next one, until done closes or Deadline elapses.
func (p Periodic) Listen(tx chan<- *ctxmap.Context, done <-chan struct{}) error {
	var elapsed time.Duration
	for {
		sleep := p.Interval
		if p.Deadline > 0 {
			if remaining := p.Deadline - elapsed; remaining < sleep {
				sleep = remaining
			}
		}
		if sleep <= 0 {
			return nil
		}

		if !p.step(tx, done, sleep) {
			return nil
		}
		elapsed += sleep
		if p.Deadline > 0 && elapsed >= p.Deadline {
			return nil
		}
	}
}

// step runs one tick: emit, then sleep for the given duration. Returns
// false when done has closed (the caller should stop looping) and true
// otherwise. This is the deterministic unit spec.md §4.6 calls out for
// tests: a single call advances exactly one tick with no reliance on
// wall-clock timing beyond the supplied sleep duration.
func (p Periodic) step(tx chan<- *ctxmap.Context, done <-chan struct{}, sleep time.Duration) bool {
	cc := ctxmap.New()
	cc.Set(ctxmap.KeyTriggerName, ctxmap.TriggerSchedule)
	cc.Set(ctxmap.KeyScheduleDelay, p.Interval.String())

	select {
	case tx <- cc:
	case <-done:
		return false
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-done:
		return false
	}
}
