package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	recordAttempts = 3
	recordDelay    = 50 * time.Millisecond
)

// unrecorded holds store records created by this process whose bookkeeping
// row could not be written, keyed by catalog id. Later attempts reuse them
// instead of creating the store record again.
type unrecorded[T any] struct {
	mu sync.Mutex
	m  map[string]T
}

func newUnrecorded[T any]() *unrecorded[T] {
	return &unrecorded[T]{m: make(map[string]T)}
}

func (u *unrecorded[T]) get(key string) (T, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, ok := u.m[key]
	return v, ok
}

func (u *unrecorded[T]) put(key string, v T) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.m[key] = v
}

func (u *unrecorded[T]) forget(key string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.m, key)
}

// record runs a bookkeeping write, retrying any error a few times.
func record(ctx context.Context, op string, fn func() error) error {
	delay := recordDelay
	var err error
	for i := 1; i <= recordAttempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == recordAttempts {
			break
		}
		log.Warn().Err(err).Str("op", op).Int("attempt", i).Msg("bookkeeping write failed, retrying")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
