// Package cache keeps unfiltered record counts in Redis. Filtered counts are
// never cached; they depend on the search terms of each request.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"DataTablesAPI/internal/logger"

	"github.com/redis/go-redis/v9"
)

type TotalCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTotalCache(rdb *redis.Client, ttl time.Duration) *TotalCache {
	return &TotalCache{rdb: rdb, ttl: ttl}
}

// Total returns the cached count for key, calling count on a miss. Redis
// failures are logged and fall through to count.
func (c *TotalCache) Total(ctx context.Context, key string, count func(context.Context) (int64, error)) (int64, error) {
	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if n, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return n, nil
		}
		logger.Warn("total_cache_invalid", map[string]any{"key": key, "value": cached})
	case !errors.Is(err, redis.Nil):
		logger.Warn("total_cache_get_failed", map[string]any{"key": key, "error": err.Error()})
	}

	n, err := count(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, key, strconv.FormatInt(n, 10), c.ttl).Err(); err != nil {
		logger.Warn("total_cache_set_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return n, nil
}

// Flush drops every cached total, e.g. after a bulk import.
func (c *TotalCache) Flush(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, "dtcount:*", 1000).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
