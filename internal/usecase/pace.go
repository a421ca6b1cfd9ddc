package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"NewsRelay/internal/ports"
)

// RandomPacer sleeps for a uniformly random duration in [Min, Max].
// A zero range never sleeps.
type RandomPacer struct {
	Min time.Duration
	Max time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

var _ ports.Pacer = (*RandomPacer)(nil)

// NewRandomPacer builds a pacer with its own random source.
func NewRandomPacer(lo, hi time.Duration) *RandomPacer {
	return &RandomPacer{Min: lo, Max: hi, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewFixedPacer sleeps exactly d between calls.
func NewFixedPacer(d time.Duration) *RandomPacer {
	return &RandomPacer{Min: d, Max: d}
}

// Pause blocks for the next delay or until ctx is done.
func (p *RandomPacer) Pause(ctx context.Context) error {
	return sleep(ctx, p.next())
}

func (p *RandomPacer) next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rand == nil {
		p.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Min + time.Duration(p.rand.Int63n(int64(p.Max-p.Min)+1))
}

// NoPause is a Pacer that never waits.
type NoPause struct{}

// Pause returns immediately unless ctx is already done.
func (NoPause) Pause(ctx context.Context) error {
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
