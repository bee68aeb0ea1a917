package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-timetable/pkg/config"
)

// NewRedis returns a configured Redis client, verified with a ping bounded by ctx.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
