package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrLockHeld is returned by TryLock when another holder owns the key.
var ErrLockHeld = errors.New("lock held")

// Locker serializes work per key.
type Locker interface {
	// Lock blocks until key is acquired or ctx is done.
	Lock(ctx context.Context, key string) (unlock func(), err error)
	// TryLock acquires key or returns ErrLockHeld without waiting.
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// RedisLocker is a Locker shared by every process using the same Redis.
// Held locks are refreshed in the background; a crashed holder's lock
// expires after ttl.
type RedisLocker struct {
	redis  *RedisClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a RedisLocker namespacing keys under prefix.
func NewRedisLocker(redis *RedisClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{redis: redis, prefix: prefix, ttl: ttl, poll: 50 * time.Millisecond}
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		unlock, err := l.TryLock(ctx, key)
		if !errors.Is(err, ErrLockHeld) {
			return unlock, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

// TryLock implements Locker.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, full, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	stop := make(chan struct{})
	go l.keepAlive(full, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := l.redis.ReleaseIfOwner(ctx, full, token); err != nil {
				log.Warn().Err(err).Str("key", full).Msg("failed to release lock")
			}
		})
	}, nil
}

// keepAlive extends a held lock every ttl/3 until stop is closed, so long
// holders such as an import run keep the key.
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ok, err := l.redis.ExtendIfOwner(ctx, key, token, l.ttl)
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to extend lock")
				continue
			}
			if !ok {
				log.Warn().Str("key", key).Msg("lock lost before release")
				return
			}
		}
	}
}

// LocalLocker is an in-process Locker used when Redis is not configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

// Lock implements Locker.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		unlock, wait := l.acquire(key)
		if unlock != nil {
			return unlock, nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryLock implements Locker.
func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), error) {
	if unlock, _ := l.acquire(key); unlock != nil {
		return unlock, nil
	}
	return nil, ErrLockHeld
}

// acquire returns an unlock func on success, or the channel closed on release.
func (l *LocalLocker) acquire(key string) (func(), <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, busy := l.held[key]; busy {
		return nil, ch
	}
	ch := make(chan struct{})
	l.held[key] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(ch)
		})
	}, nil
}
