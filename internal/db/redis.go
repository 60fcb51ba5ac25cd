package db

import (
	"context"

	"DataTablesAPI/internal/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// InitRedis leaves RDB nil when addr is empty; the total-count cache is
// optional.
func InitRedis(addr string) {
	if addr == "" {
		logger.Info("redis_disabled", nil)
		return
	}
	RDB = redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func PingRedis(ctx context.Context) error {
	return RDB.Ping(ctx).Err()
}
