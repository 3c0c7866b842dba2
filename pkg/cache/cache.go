// Package cache provides a small JSON value cache with Redis and in-memory
// drivers. A miss is never an error: callers fall through to the source of
// truth.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/logger"
	"github.com/shashiranjanraj/grinfood/pkg/metrics"
)

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	// Get unmarshals the value under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Forget is an alias for Del (Laravel-style).
func Forget(ctx context.Context, c Cache, key string) error {
	return c.Del(ctx, key)
}

// Remember returns the cached value under key, or calls load, caches its
// result for ttl and returns it. A failing Set is logged, not returned.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c.Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: set failed", "key", key, "error", err)
	}
	return v, nil
}

func decode(driver string, raw []byte, dest any) bool {
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(driver).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(driver).Inc()
	return true
}
