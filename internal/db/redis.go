package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
)

const redisDialTimeout = 5 * time.Second

// ConnectRedis returns a pinged client, or nil when REDIS_ADDR is unset.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("Successfully connected to Redis at %s", cfg.RedisAddr)
	return rdb, nil
}
