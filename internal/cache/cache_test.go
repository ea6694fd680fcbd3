package cache

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forecastPayload struct {
	ResortID int64   `json:"resortId"`
	Snow     float64 `json:"snow"`
}

func newTestCache(b Backend) (*Cache, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return New(b, slog.Default(), m), m
}

func TestGetOrSet_ComputesOncePerMiss(t *testing.T) {
	ctx := context.Background()
	c, m := newTestCache(NewMemoryBackend())
	key := ForecastKey(7)

	calls := 0
	compute := func(context.Context) (forecastPayload, error) {
		calls++
		return forecastPayload{ResortID: 7, Snow: 12.5}, nil
	}

	v, err := GetOrSet(ctx, c, key, TTLForecast, compute)
	require.NoError(t, err)
	assert.Equal(t, forecastPayload{ResortID: 7, Snow: 12.5}, v)
	assert.Equal(t, 1, calls)

	v, err = GetOrSet(ctx, c, key, TTLForecast, compute)
	require.NoError(t, err)
	assert.Equal(t, 12.5, v.Snow)
	assert.Equal(t, 1, calls, "hit must not recompute")

	c.Invalidate(ctx, key)

	_, err = GetOrSet(ctx, c, key, TTLForecast, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "recompute after invalidate")

	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")), 0)
}

func TestGetOrSet_ComputeErrorNotStored(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(NewMemoryBackend())
	boom := errors.New("store down")

	_, err := GetOrSet(ctx, c, ConditionsKey(1), TTLConditions, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := Get[int](ctx, c, ConditionsKey(1))
	assert.False(t, ok)
}

func TestInvalidate_MissingKeyIsNoop(t *testing.T) {
	c, _ := newTestCache(NewMemoryBackend())
	c.Invalidate(context.Background(), ResortKey("nope"))
	c.Invalidate(context.Background())
}

func TestInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	c, _ := newTestCache(b)

	c.Set(ctx, ForecastKey(1), 1, TTLForecast)
	c.Set(ctx, ForecastKey(2), 2, TTLForecast)
	c.Set(ctx, ForecastHourlyKey(1), 3, TTLForecastHourly)
	c.Set(ctx, ConditionsKey(1), 4, TTLConditions)

	c.InvalidatePattern(ctx, ForecastPattern())

	keys, err := b.Keys(ctx, "snowline:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{ConditionsKey(1), ForecastHourlyKey(1)}, keys)

	// No matches is a no-op.
	c.InvalidatePattern(ctx, RankingsPattern())
}

// failingBackend simulates an unreachable store.
type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingBackend) Delete(context.Context, ...string) error { return f.err }
func (f failingBackend) Keys(context.Context, string) ([]string, error) { return nil, f.err }

func TestCache_BackendFailureDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c, m := newTestCache(failingBackend{err: errors.New("connection refused")})

	calls := 0
	for i := 0; i < 2; i++ {
		v, err := GetOrSet(ctx, c, ForecastKey(3), TTLForecast, func(context.Context) (string, error) {
			calls++
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)
	}
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("error")), 0)

	c.Invalidate(ctx, ForecastKey(3))
	c.InvalidatePattern(ctx, ForecastPattern())
}

func TestCache_DecodeFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	c, _ := newTestCache(b)
	require.NoError(t, b.Set(ctx, ForecastKey(1), []byte("{not json"), time.Minute))

	_, ok := Get[forecastPayload](ctx, c, ForecastKey(1))
	assert.False(t, ok)
}

func TestNoopBackend(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(nil)
	c.Set(ctx, ResortKey("vail"), "x", TTLResort)
	_, ok := Get[string](ctx, c, ResortKey("vail"))
	assert.False(t, ok)
}

func TestMemoryBackend_TTL(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewBackend(t *testing.T) {
	logger := slog.Default()

	b, err := NewBackend(KindRedis, "", "tok", logger)
	require.NoError(t, err)
	assert.IsType(t, NoopBackend{}, b)

	b, err = NewBackend(KindRedis, "localhost:6379", "", logger)
	require.NoError(t, err)
	assert.IsType(t, NoopBackend{}, b)

	b, err = NewBackend(KindRedis, "localhost:6379", "tok", logger)
	require.NoError(t, err)
	require.IsType(t, &RedisBackend{}, b)
	require.NoError(t, b.(*RedisBackend).Close())

	b, err = NewBackend(KindMemory, "", "", logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	_, err = NewBackend("memcached", "", "", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("redis://cache.internal:6380/2", "secret")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)

	opts, err = redisOptions("localhost:6379", "secret")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
}
