package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSnapshotCache caches directory lookup snapshots in Redis. It is
// strictly best effort: any Redis failure is logged at debug level and
// treated as a miss, so a cache outage never degrades invoice creation
// beyond the extra lookup round trip.
type RedisSnapshotCache struct {
	client *redis.Client
	logger *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisSnapshotCache creates a Redis-backed snapshot cache and
// verifies the connection.
func NewRedisSnapshotCache(cfg RedisConfig, logger *zap.Logger) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisSnapshotCacheWithClient(client, logger), nil
}

// NewRedisSnapshotCacheWithClient creates a cache with an existing
// Redis client. Useful for testing or sharing a client.
func NewRedisSnapshotCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisSnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSnapshotCache{client: client, logger: logger}
}

// Get returns the cached value for key, or a miss on any failure
func (c *RedisSnapshotCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("snapshot cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores a value under key with the given TTL, best effort
func (c *RedisSnapshotCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debug("snapshot cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the Redis client
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}
