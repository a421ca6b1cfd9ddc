package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedulerRunsImmediatelyThenTicks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(20 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestIntervalSchedulerNeverOverlaps(t *testing.T) {
	t.Parallel()

	var active, maxActive, runs atomic.Int32
	s := NewIntervalScheduler(5 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		time.Sleep(30 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
	}))

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, int32(1), maxActive.Load())
	// with dropped ticks the slow job cannot run once per interval
	assert.Less(t, runs.Load(), int32(10))
}

func TestIntervalSchedulerStartTwice(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))
	assert.ErrorIs(t, s.Start(context.Background(), func(time.Time) {}), ErrAlreadyStarted)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	s := NewIntervalScheduler(10 * time.Millisecond)
	require.NoError(t, s.Start(ctx, func(time.Time) { runs.Add(1) }))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerRejectsBadInterval(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewIntervalScheduler(0).Start(context.Background(), func(time.Time) {}))
	assert.NoError(t, NewIntervalScheduler(time.Second).Start(context.Background(), nil))
}
