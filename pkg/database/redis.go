package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"license-server/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// InitRedis accepts either a redis:// URL or a bare host:port.
func InitRedis(ctx context.Context, config utils.RedisConfig) (*redis.Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis storage driver")
	}

	var client *redis.Client
	if strings.HasPrefix(config.URL, "redis://") || strings.HasPrefix(config.URL, "rediss://") {
		opt, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: config.URL})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}

	return client, nil
}
