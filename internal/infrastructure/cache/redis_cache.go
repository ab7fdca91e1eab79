package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"PoliticianEvaluator/internal/config"
	"PoliticianEvaluator/internal/ports"
)

const connectionTimeout = 3 * time.Second

// commander is the subset of *redis.Client the cache relies on.
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache keeps raw provider answers keyed by request hash.
type RedisCache struct {
	client commander
	prefix string
	ttl    time.Duration
}

var _ ports.ResponseCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and returns the cache with its close func.
// The cache is nil when no address is configured.
func NewRedisCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*RedisCache, func() error, error) {
	if cfg.RedisAddr == "" {
		return nil, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}

	if logger != nil {
		logger.Info("response cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	}
	return newRedisCache(client, cfg.Prefix, cfg.TTL), client.Close, nil
}

func newRedisCache(client commander, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached answer; a miss is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

// Set stores an answer with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
