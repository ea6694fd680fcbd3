// Package cache implements the cache-aside layer in front of the store. The
// cache is optional: backend failures are logged and counted, reads fall back
// to a miss and writes are skipped, so callers never fail because of it.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/observability"
)

// Cache wraps a Backend with a JSON codec and degrade-to-miss semantics.
type Cache struct {
	backend Backend
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Cache. A nil backend behaves like NoopBackend.
func New(backend Backend, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	if backend == nil {
		backend = NoopBackend{}
	}
	return &Cache{backend: backend, logger: logger, metrics: metrics}
}

// Get returns the cached value for key, or false on a miss. Decode and
// backend errors count as a miss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return zero, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache decode failed", "key", key, "error", err)
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return zero, false
	}
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return v, true
}

// Set stores value under key for ttl. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// Invalidate deletes the given keys. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.backend.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidate failed", "keys", keys, "error", err)
	}
}

// InvalidatePattern deletes every key matching pattern. Build patterns with
// the *Pattern helpers in keys.go.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	keys, err := c.backend.Keys(ctx, pattern)
	if err != nil {
		c.logger.Warn("cache key scan failed", "pattern", pattern, "error", err)
		return
	}
	c.Invalidate(ctx, keys...)
}

// GetOrSet returns the cached value on a hit without calling compute. On a
// miss it calls compute once, stores the result for ttl and returns it.
// Concurrent misses for the same key may each compute. A compute error is
// returned as is and nothing is stored.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if v, ok := Get[T](ctx, c, key); ok {
		return v, nil
	}
	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	c.Set(ctx, key, v, ttl)
	return v, nil
}
