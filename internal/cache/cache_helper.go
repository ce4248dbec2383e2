package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the byte-level backend behind the cache layer. Implementations
// must be safe for concurrent use; writes to the same key are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// RedisStore keeps entries in redis under a common prefix
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a redis-backed store. A nil client yields a store
// that misses on every read and drops every write.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// ConnectStore returns a RedisStore when client answers a ping before ctx
// expires and an in-memory store otherwise. The service keeps running on the
// memory store when redis is unreachable at startup.
func ConnectStore(ctx context.Context, client *redis.Client, prefix string, logger *slog.Logger) Store {
	if client == nil {
		return NewMemoryStore(SystemClock)
	}

	store := NewRedisStore(client, prefix)
	if err := store.Ping(ctx); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "Redis unreachable, using in-memory cache", "error", err)
		}
		return NewMemoryStore(SystemClock)
	}
	return store
}

// GetCacheKey generates a cache key with prefix
func (c *RedisStore) GetCacheKey(key string) string {
	return fmt.Sprintf("%s%s", c.prefix, key)
}

// Get retrieves raw bytes from cache
func (c *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return nil, ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheNotFound
		}
		// Sanitize error to prevent log injection
		return nil, fmt.Errorf("cache get error for key type: %w", err)
	}

	return data, nil
}

// Set stores raw bytes with the given TTL
func (c *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.client == nil {
		return nil // Graceful degradation when cache not available
	}

	return c.client.Set(ctx, c.GetCacheKey(key), value, ttl).Err()
}

// Delete removes data from cache using pipeline for multiple keys
func (c *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}

	// Use pipeline for multiple keys
	if len(cacheKeys) > 1 {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, cacheKeys...)
		_, err := pipe.Exec(ctx)
		return err
	}

	return c.client.Del(ctx, cacheKeys...).Err()
}

// Ping verifies cache connectivity
func (c *RedisStore) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	if _, err := c.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}

	return nil
}
