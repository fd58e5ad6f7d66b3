package redisclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("doctor lock not acquired")
)

// Locker is used by the scheduling service to guard check-then-reserve
// critical sections per doctor.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// DoctorKey is the lock key guarding one doctor's booked-slot set.
func DoctorKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("lock:doctor:%s", doctorID.String())
}

// RetryPolicy controls how long a caller waits for a held lock.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  RetryPolicy
}

// NewRedisLocker creates a locker backed by one Redis key per lock key.
func NewRedisLocker(client *redis.Client, ttl time.Duration, retry RetryPolicy) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
		retry:  retry,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	err := acquire(ctx, l.retry, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		return ok, nil
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// LocalLocker is an in-process Locker for single-instance runs without
// Redis. It follows the same try-then-retry semantics.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]struct{}
	retry RetryPolicy
}

func NewLocalLocker(retry RetryPolicy) *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]struct{}),
		retry: retry,
	}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := acquire(ctx, l.retry, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, busy := l.held[key]; busy {
			return false, nil
		}
		l.held[key] = struct{}{}
		return true, nil
	})
	if err != nil {
		return err
	}

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}

func acquire(ctx context.Context, retry RetryPolicy, try func() (bool, error)) error {
	attempts := retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.Delay):
		}
	}
	return ErrLockNotAcquired
}
