package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

// Connect initialises a Redis client and verifies the connection with a ping.
// The same client backs the cache and the Redis queue driver.
func Connect(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// Redis is a Cache on a go-redis client. Keys are namespaced with prefix.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis returns a Cache on rdb.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, prefix: "grinfood:cache:"}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) bool {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	return decode("redis", val, dest)
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return c.rdb.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}
