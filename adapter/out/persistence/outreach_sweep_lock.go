package persistence

import (
	"context"
	"sync"
	"time"

	"outreach_server/core/port/out"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// =============================================================================
// Sweep Lock
// =============================================================================

const sweepLockKey = "outreach:reply_sweep:lock"

// RedisSweepLock serializes reply sweeps across processes with SET NX + TTL.
// The TTL releases the lock if the holder crashes mid-sweep.
type RedisSweepLock struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisSweepLock(client *redis.Client, log zerolog.Logger) *RedisSweepLock {
	return &RedisSweepLock{
		client: client,
		log:    log.With().Str("component", "sweep_lock").Logger(),
	}
}

func (l *RedisSweepLock) TryAcquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	acquired, err := l.client.SetNX(ctx, sweepLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}

	release := func() {
		// Release on a fresh context: the sweep's context may already be done.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Del(relCtx, sweepLockKey).Err(); err != nil {
			l.log.Warn().Err(err).Msg("failed to release sweep lock, TTL will expire it")
		}
	}
	return release, true, nil
}

// MemorySweepLock is the single-process fallback when Redis is not
// configured.
type MemorySweepLock struct {
	mu   sync.Mutex
	held bool
}

func NewMemorySweepLock() *MemorySweepLock {
	return &MemorySweepLock{}
}

func (l *MemorySweepLock) TryAcquire(_ context.Context, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, false, nil
	}
	l.held = true

	release := func() {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
	}
	return release, true, nil
}

var (
	_ out.SweepLock = (*RedisSweepLock)(nil)
	_ out.SweepLock = (*MemorySweepLock)(nil)
)
