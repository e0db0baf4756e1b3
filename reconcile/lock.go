package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrPassInProgress is returned by Run when another pass holds the run-lock.
var ErrPassInProgress = errors.New("reconcile: pass already in progress")

// Locker guards a pass against overlapping passes. Acquire never waits: it
// fails with ErrPassInProgress when the lock is held.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// MutexLocker excludes passes within one process.
type MutexLocker struct {
	mu sync.Mutex
}

func (l *MutexLocker) Acquire(context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, ErrPassInProgress
	}
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}

// releaseScript deletes the lock only if it still carries our token, so a
// pass that outlived its TTL cannot free a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker excludes passes across replicas sharing one Redis.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

const defaultLockTTL = 5 * time.Minute

func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = "lock:menusync:reconcile"
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("reconcile: acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrPassInProgress
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("reconcile: release lock: %w", err)
		}
		return nil
	}, nil
}
