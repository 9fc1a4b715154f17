// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"crediflow/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options whose dial timeout follows the store's
// connect timeout.
func RedisOptions(cfg config.RedisConfig, connectTimeout time.Duration) *redis.Options {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   -1, // lookups are single attempts
	}
}

// DialRedis creates a client and pings it. The client is closed when the
// ping fails.
func DialRedis(ctx context.Context, cfg config.RedisConfig, connectTimeout time.Duration) (*redis.Client, error) {
	rdb := redis.NewClient(RedisOptions(cfg, connectTimeout))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	return rdb, nil
}
