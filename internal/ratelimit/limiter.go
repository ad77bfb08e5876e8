package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum spacing between outbound remote calls. The
// remote API's quota is global, not per-table, so one Limiter is shared by
// every data source in the process.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time

	now   func() time.Time                          // injectable for deterministic tests
	sleep func(context.Context, time.Duration) error // injectable for deterministic tests
}

// New creates a Limiter with the given minimum spacing. minInterval <= 0
// disables spacing entirely.
func New(minInterval time.Duration) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Acquire blocks until at least minInterval has elapsed since the previous
// grant, then records the new grant time.
//
// The mutex is held across the wait: concurrent callers are granted strictly
// serialized slots spaced by minInterval, rather than all observing "enough
// time has passed" and racing for the same window. A cancelled context
// returns ctx.Err() without recording a grant.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if l.minInterval > 0 && !l.last.IsZero() {
		if wait := l.minInterval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.last = l.now()
	return nil
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
