package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/traininduction/traininduction/internal/scoring"
)

// RedisCache is a ScoreCache backed by Redis.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string
	// TTL bounds how long a result is reused.
	// Default: 10 minutes
	TTL time.Duration
	// Prefix is prepended to every key.
	// Default: "induction:score:"
	Prefix string
}

// NewRedisCache connects to Redis.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opt), cfg), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(rdb *redis.Client, cfg RedisConfig) *RedisCache {
	if cfg.TTL == 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "induction:score:"
	}
	return &RedisCache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

// Get returns the cached result for key.
func (c *RedisCache) Get(ctx context.Context, key string) (scoring.Result, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return scoring.Result{}, false, nil
	}
	if err != nil {
		return scoring.Result{}, false, fmt.Errorf("redis get: %w", err)
	}
	r, err := decodeResult(data)
	if err != nil {
		return scoring.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return r, true, nil
}

// Set stores result under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result scoring.Result) error {
	data, err := encodeResult(result)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

var _ ScoreCache = (*RedisCache)(nil)
