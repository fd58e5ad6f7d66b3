package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalLocker_ExclusiveWhileHeld(t *testing.T) {
	l := NewLocalLocker(RetryPolicy{Attempts: 1})
	key := DoctorKey(uuid.New())

	err := l.WithLock(context.Background(), key, func(ctx context.Context) error {
		inner := l.WithLock(ctx, key, func(context.Context) error { return nil })
		if !errors.Is(inner, ErrLockNotAcquired) {
			t.Fatalf("expected ErrLockNotAcquired, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer lock: %v", err)
	}

	// Released after the first call returns.
	if err := l.WithLock(context.Background(), key, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected lock to be free, got %v", err)
	}
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker(RetryPolicy{Attempts: 1})
	a, b := DoctorKey(uuid.New()), DoctorKey(uuid.New())

	err := l.WithLock(context.Background(), a, func(ctx context.Context) error {
		return l.WithLock(ctx, b, func(context.Context) error { return nil })
	})
	if err != nil {
		t.Fatalf("expected independent keys to lock, got %v", err)
	}
}

func TestLocalLocker_RetryWaitsForRelease(t *testing.T) {
	l := NewLocalLocker(RetryPolicy{Attempts: 20, Delay: 5 * time.Millisecond})
	key := DoctorKey(uuid.New())

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), key, func(context.Context) error {
			close(held)
			time.Sleep(20 * time.Millisecond)
			return nil
		})
		close(done)
	}()

	<-held
	if err := l.WithLock(context.Background(), key, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected retry to acquire after release, got %v", err)
	}
	<-done
}

func TestLocalLocker_PropagatesError(t *testing.T) {
	l := NewLocalLocker(RetryPolicy{})
	boom := errors.New("boom")
	err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
