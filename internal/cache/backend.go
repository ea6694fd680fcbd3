package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend is the key/value capability the cache-aside layer sits on. Values
// are opaque bytes; Keys takes a glob pattern ("*" wildcard).
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// NoopBackend always misses and discards writes. It stands in when caching is
// not configured so call sites never branch on cache availability.
type NoopBackend struct{}

func (NoopBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopBackend) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopBackend) Delete(context.Context, ...string) error { return nil }
func (NoopBackend) Keys(context.Context, string) ([]string, error) { return nil, nil }

// Backend kinds accepted by NewBackend.
const (
	KindRedis  = "redis"
	KindMemory = "memory"
)

// NewBackend picks the backend for the given settings. The memory backend
// ignores url and token. For redis, an empty url or token disables caching.
func NewBackend(kind, url, token string, logger *slog.Logger) (Backend, error) {
	switch kind {
	case KindMemory:
		logger.Info("cache enabled", "backend", KindMemory)
		return NewMemoryBackend(), nil
	case KindRedis, "":
		if url == "" || token == "" {
			logger.Info("cache disabled", "reason", "CACHE_URL or CACHE_TOKEN not set")
			return NoopBackend{}, nil
		}
		b, err := NewRedisBackend(url, token)
		if err != nil {
			return nil, err
		}
		logger.Info("cache enabled", "backend", KindRedis)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", kind)
	}
}
