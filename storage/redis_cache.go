package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisV8 "github.com/go-redis/redis/v8"

	"flight-scraper/utils"
)

// RedisPayloadCache keeps raw search payloads in Redis with a TTL so that
// re-runs over the same dates do not hit the provider again
type RedisPayloadCache struct {
	client *redisV8.Client
	ttl    time.Duration
	logger *utils.Logger
}

// NewRedisPayloadCache connects to addr and verifies the connection
func NewRedisPayloadCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *utils.Logger) (*RedisPayloadCache, error) {
	client := redisV8.NewClient(&redisV8.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", addr, err)
	}
	logger.Info("Connected to Redis at %s (payload TTL %v)", addr, ttl)
	return NewRedisPayloadCacheWithClient(client, ttl, logger), nil
}

// NewRedisPayloadCacheWithClient wraps an existing client
func NewRedisPayloadCacheWithClient(client *redisV8.Client, ttl time.Duration, logger *utils.Logger) *RedisPayloadCache {
	return &RedisPayloadCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached payload; ok is false on a miss
func (c *RedisPayloadCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisV8.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

// Set stores body under key for the configured TTL
func (c *RedisPayloadCache) Set(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisPayloadCache) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}
