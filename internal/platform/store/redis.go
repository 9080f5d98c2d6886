package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fhirviewer:def:"

// RedisCache shares raw definition bytes between viewer instances so that
// only one of them pays for a slow source such as S3.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the server named by a redis:// URL.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func redisKey(file string) string {
	return redisKeyPrefix + file
}

// Get returns the cached bytes; ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, file string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, redisKey(file)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", file, err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, file string, data []byte) error {
	if err := c.client.Set(ctx, redisKey(file), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", file, err)
	}
	return nil
}

// Clear deletes every key written by the viewer.
func (c *RedisCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, redisKeyPrefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
