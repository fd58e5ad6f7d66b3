package redisclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deduper claims one-shot keys so that several workers sharing a store do
// the same piece of work once.
type Deduper interface {
	// Claim reports true for the first caller of key within ttl.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release gives the key back, e.g. after the work failed.
	Release(ctx context.Context, key string) error
}

// ReminderKey identifies the daily reminder of one program on one date.
func ReminderKey(programID uuid.UUID, date string) string {
	return fmt.Sprintf("reminder:program:%s:%s", programID.String(), date)
}

type redisDeduper struct {
	client *redis.Client
}

func NewRedisDeduper(client *redis.Client) Deduper {
	return &redisDeduper{client: client}
}

func (d *redisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (d *redisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// LocalDeduper is the in-process Deduper for runs without Redis.
type LocalDeduper struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	now     func() time.Time
}

func NewLocalDeduper() *LocalDeduper {
	return &LocalDeduper{
		claimed: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *LocalDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if exp, ok := d.claimed[key]; ok && now.Before(exp) {
		return false, nil
	}
	d.claimed[key] = now.Add(ttl)
	return true, nil
}

func (d *LocalDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.claimed, key)
	d.mu.Unlock()
	return nil
}
