package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachable points at a closed port so every command fails fast.
func unreachable() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestTotalFallsBackToCountWhenRedisIsDown(t *testing.T) {
	c := NewTotalCache(unreachable(), time.Minute)
	calls := 0
	n, err := c.Total(context.Background(), "dtcount:Users:x", func(context.Context) (int64, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Total: %v", err)
	}
	if n != 42 || calls != 1 {
		t.Fatalf("got %d after %d count calls", n, calls)
	}
}

func TestTotalPropagatesCountError(t *testing.T) {
	c := NewTotalCache(unreachable(), time.Minute)
	boom := errors.New("db down")
	_, err := c.Total(context.Background(), "k", func(context.Context) (int64, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected count error, got %v", err)
	}
}
