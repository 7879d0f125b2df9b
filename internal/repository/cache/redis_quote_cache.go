package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/autolot/autolot-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisQuoteCache implements domain.QuoteCache using Redis
type RedisQuoteCache struct {
	client *redis.Client
}

// NewRedisQuoteCache connects to Redis and verifies the connection with a ping
func NewRedisQuoteCache(ctx context.Context, cfg config.RedisConfig) (*RedisQuoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQuoteCache{client: client}, nil
}

// NewRedisQuoteCacheFromClient wraps an existing client
func NewRedisQuoteCacheFromClient(client *redis.Client) *RedisQuoteCache {
	return &RedisQuoteCache{client: client}
}

// Get returns the cached value; a miss is reported as found=false with no error
func (c *RedisQuoteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key; a zero ttl keeps it until evicted
func (c *RedisQuoteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the underlying connection pool
func (c *RedisQuoteCache) Close() error {
	return c.client.Close()
}
