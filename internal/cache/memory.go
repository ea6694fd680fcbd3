package cache

import (
	"context"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend is an in-process backend for local development and tests.
type MemoryBackend struct {
	store *gocache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	b.store.Set(key, value, ttl)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		b.store.Delete(k)
	}
	return nil
}

func (b *MemoryBackend) Keys(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	for k := range b.store.Items() {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
