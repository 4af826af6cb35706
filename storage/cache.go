package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "signed-url:"

// RedisCache is a URLCache backed by Redis string keys with expiry.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// ConnectRedis returns a pinged client, or nil when no address is set.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, url string, ttl time.Duration) error {
	return c.client.Set(ctx, redisKeyPrefix+key, url, ttl).Err()
}
