package redisclient

import (
	"context"
	"testing"
)

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), Options{})
	if err == nil {
		_ = rdb.Close()
		t.Fatal("expected an error for an empty address")
	}
}
