package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchloop/gitwatch/internal/ctxmap"
)

func TestPeriodicStepEmitsThenSleeps(t *testing.T) {
	p := Periodic{Interval: 10 * time.Millisecond}
	tx := make(chan *ctxmap.Context, 1)
	done := make(chan struct{})

	start := time.Now()
	cont := p.step(tx, done, p.Interval)
	elapsed := time.Since(start)

	assert.True(t, cont)
	assert.GreaterOrEqual(t, elapsed, p.Interval)

	select {
	case cc := <-tx:
		name, ok := cc.Get(ctxmap.KeyTriggerName)
		require.True(t, ok)
		assert.Equal(t, ctxmap.TriggerSchedule, name)
	default:
		t.Fatal("expected an emitted context")
	}
}

func TestPeriodicStepReturnsFalseOnDone(t *testing.T) {
	p := Periodic{Interval: time.Second}
	tx := make(chan *ctxmap.Context, 1)
	done := make(chan struct{})
	close(done)

	assert.False(t, p.step(tx, done, p.Interval))
}

func TestPeriodicListenHonorsDeadline(t *testing.T) {
	p := Periodic{Interval: 5 * time.Millisecond, Deadline: 17 * time.Millisecond}
	tx := make(chan *ctxmap.Context, 16)
	done := make(chan struct{})

	doneCh := make(chan error, 1)
	go func() { doneCh <- p.Listen(tx, done) }()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Listen did not return within its deadline")
	}

	count := 0
	for {
		select {
		case <-tx:
			count++
		default:
			assert.GreaterOrEqual(t, count, 2)
			return
		}
	}
}
