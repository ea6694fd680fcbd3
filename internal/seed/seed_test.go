package seed_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/adapter/store"
	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/couchcryptid/snowline-etl-service/internal/observability"
	"github.com/couchcryptid/snowline-etl-service/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "resorts": [
    {"name": "Loveland", "slug": "loveland", "lat": 39.68, "lng": -105.90, "elevationFt": 10800, "snotelStation": "602:CO:SNTL"},
    {"name": "Eldora", "slug": "eldora", "lat": 39.94, "lng": -105.58, "elevationFt": 9200}
  ],
  "driveTimes": [
    {"originCity": "Denver", "originLat": 39.74, "originLng": -104.99, "resortSlug": "loveland", "durationMinutes": 60, "distanceMiles": 53},
    {"originCity": "Denver", "originLat": 39.74, "originLng": -104.99, "resortSlug": "eldora", "durationMinutes": 75, "distanceMiles": 47},
    {"originCity": "Boulder", "originLat": 40.01, "originLng": -105.27, "resortSlug": "eldora", "durationMinutes": 35, "distanceMiles": 21}
  ]
}`

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestDecode_RejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		json string
		msg  string
	}{
		{"unknown resort", `{"resorts":[{"name":"A","slug":"a"}],"driveTimes":[{"originCity":"Denver","resortSlug":"b"}]}`, `unknown resort "b"`},
		{"duplicate slug", `{"resorts":[{"name":"A","slug":"a"},{"name":"B","slug":"a"}]}`, "duplicate slug"},
		{"missing slug", `{"resorts":[{"name":"A"}]}`, "name and slug are required"},
		{"unknown field", `{"resorts":[],"lifts":[]}`, "unknown field"},
		{
			"duplicate origin and resort",
			`{"resorts":[{"name":"A","slug":"a"}],"driveTimes":[` +
				`{"originCity":"Denver","originLat":39.74,"originLng":-104.99,"resortSlug":"a","durationMinutes":60},` +
				`{"originCity":"Denver","originLat":39.74,"originLng":-104.99,"resortSlug":"a","durationMinutes":65}]}`,
			`duplicate Denver to "a"`,
		},
		{
			"conflicting origin coordinates",
			`{"resorts":[{"name":"A","slug":"a"},{"name":"B","slug":"b"}],"driveTimes":[` +
				`{"originCity":"Denver","originLat":39.74,"originLng":-104.99,"resortSlug":"a"},` +
				`{"originCity":"Denver","originLat":39.70,"originLng":-104.99,"resortSlug":"b"}]}`,
			"origin Denver has conflicting coordinates",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Decode(strings.NewReader(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "seed.db"), discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))

	backend := cache.NewMemoryBackend()
	c := cache.New(backend, discard(), observability.NewMetricsForTesting())
	c.Set(ctx, cache.DriveTimesKey("Denver"), []string{"stale"}, time.Hour)
	c.Set(ctx, cache.ForecastKey(1), "kept", time.Hour)

	f, err := seed.Decode(strings.NewReader(seedJSON))
	require.NoError(t, err)
	require.NoError(t, seed.Apply(ctx, s, c, f, discard()))
	// Applying twice is an upsert, not a duplicate.
	require.NoError(t, seed.Apply(ctx, s, c, f, discard()))

	resorts, err := s.ListResorts(ctx)
	require.NoError(t, err)
	require.Len(t, resorts, 2)
	assert.Equal(t, "602:CO:SNTL", resorts[0].SnotelStation)

	origins, err := s.Origins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Boulder", "Denver"}, []string{origins[0].City, origins[1].City})

	drives, err := s.DriveTimesFrom(ctx, domain.Origin{City: "Denver"})
	require.NoError(t, err)
	require.Len(t, drives, 2)
	assert.Equal(t, "Loveland", drives[0].ResortName)

	_, ok := cache.Get[[]string](ctx, c, cache.DriveTimesKey("Denver"))
	assert.False(t, ok, "drive-time entries are invalidated")
	_, ok = cache.Get[string](ctx, c, cache.ForecastKey(1))
	assert.True(t, ok, "unrelated entries survive")
}
