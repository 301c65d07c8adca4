// Package enhance – submission cooldown.
//
// This file implements the per-session cooldown between enhancement requests.
// State is owned by one pipeline instance (one per active session) and must
// never be shared across users. TryAcquire is a single critical section so
// two near-simultaneous submissions cannot both pass the check.
package enhance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultCooldown is the minimum interval between enhancement submissions
// from one session.
const DefaultCooldown = 30 * time.Second

// CooldownError reports that a submission arrived inside the cooldown window.
// Remaining is the time left until the next submission is allowed.
type CooldownError struct {
	Remaining time.Duration
}

// Error implements the error interface.
func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: retry in %s", e.Remaining.Round(time.Second))
}

// Gate is the cooldown check-and-set contract used by the pipeline. The
// in-memory Cooldown implements it for single-process deployments; a
// Redis-backed implementation can enforce the same contract across replicas.
//
// Acquire must be atomic: on success the gate records the dispatch instant
// exactly once; on rejection it returns *CooldownError and leaves state
// unchanged. Any other error means the gate itself failed (e.g. store
// unreachable).
type Gate interface {
	Acquire(ctx context.Context, now time.Time) error
	Remaining(ctx context.Context, now time.Time) (time.Duration, error)
}

// Cooldown is the in-memory Gate. The zero value is not usable; construct
// with NewCooldown. Safe for concurrent use.
type Cooldown struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time // zero until the first successful Acquire
}

// NewCooldown returns a Cooldown enforcing the given minimum interval.
// Non-positive intervals are coerced to DefaultCooldown.
func NewCooldown(interval time.Duration) *Cooldown {
	if interval <= 0 {
		interval = DefaultCooldown
	}
	return &Cooldown{interval: interval}
}

// Acquire records now as the last dispatch time when the cooldown window has
// elapsed (or no request was made yet), or returns *CooldownError with the
// remaining wait otherwise. The check and the update are one critical section.
func (c *Cooldown) Acquire(_ context.Context, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.last.IsZero() {
		if elapsed := now.Sub(c.last); elapsed < c.interval {
			return &CooldownError{Remaining: c.interval - elapsed}
		}
	}
	c.last = now
	return nil
}

// Remaining returns the time left in the current cooldown window, or zero when
// a submission would be accepted. It never mutates state; UI code may poll it
// once per second to drive a countdown.
func (c *Cooldown) Remaining(_ context.Context, now time.Time) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last.IsZero() {
		return 0, nil
	}
	if elapsed := now.Sub(c.last); elapsed < c.interval {
		return c.interval - elapsed, nil
	}
	return 0, nil
}
