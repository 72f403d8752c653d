package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a Redis client with JSON get/set and queue helpers.
// Cache misses surface as redis.Nil so callers can fall back to PostgreSQL.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates a new RedisCache.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// GetJSON fetches a key and unmarshals its JSON value into dest.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return nil
}

// SetJSON marshals value to JSON and stores it under key.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, expiration).Err()
}

// Enqueue pushes a value onto the tail of a Redis list queue.
func (c *RedisCache) Enqueue(ctx context.Context, key, value string) error {
	return c.rdb.RPush(ctx, key, value).Err()
}
