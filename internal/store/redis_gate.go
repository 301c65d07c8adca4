// Package store provides the Redis-backed cooldown gate used when the server
// runs with more than one replica. A single SET NX PX round-trip is both the
// check and the claim, so concurrent submissions across replicas still admit
// exactly one request per window.
//
// The package is optional wiring: single-replica deployments use the
// in-memory gate from internal/enhance and never touch Redis.
package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptpilot/go-prompt-backend/internal/enhance"
)

// keyPrefix namespaces cooldown keys away from any other tenant of the
// Redis instance.
const keyPrefix = "cooldown:"

// RedisGate is an enhance.Gate whose window lives in Redis under one key per
// session. Key expiry is the window; no sweeper is needed.
type RedisGate struct {
	client   *redis.Client
	key      string
	interval time.Duration
}

// NewRedisGate builds a gate for one session. An interval <= 0 falls back to
// the pipeline's default cooldown.
func NewRedisGate(client *redis.Client, sessionID string, interval time.Duration) *RedisGate {
	if interval <= 0 {
		interval = enhance.DefaultCooldown
	}
	return &RedisGate{
		client:   client,
		key:      keyPrefix + sessionID,
		interval: interval,
	}
}

// Acquire claims the window with SET NX PX. When the key already exists the
// claim fails and the key's remaining TTL becomes the retry hint. Redis
// transport failures are returned as-is; the caller decides whether to fail
// open or closed.
func (g *RedisGate) Acquire(ctx context.Context, now time.Time) error {
	ok, err := g.client.SetNX(ctx, g.key, now.UnixMilli(), g.interval).Result()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	rem, err := g.remaining(ctx)
	if err != nil {
		return err
	}
	return &enhance.CooldownError{Remaining: rem}
}

// Remaining reports the time left on the session's window without claiming it.
func (g *RedisGate) Remaining(ctx context.Context, _ time.Time) (time.Duration, error) {
	return g.remaining(ctx)
}

func (g *RedisGate) remaining(ctx context.Context) (time.Duration, error) {
	ttl, err := g.client.PTTL(ctx, g.key).Result()
	if err != nil {
		return 0, err
	}
	// PTTL reports negative durations for missing keys and keys without
	// expiry; both mean the window is open.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
