package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "file::memory:", slog.Default())
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedResort(t *testing.T, s *Store, slug string) int64 {
	t.Helper()
	id, err := s.UpsertResort(context.Background(), domain.Resort{
		Name: slug, Slug: slug, Lat: 39.6, Lng: -106.3, ElevationFt: 8100, SnotelStation: "842:CO:SNTL",
	})
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestResorts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vail := seedResort(t, s, "vail")
	abasin := seedResort(t, s, "arapahoe-basin")

	again, err := s.UpsertResort(ctx, domain.Resort{Name: "Vail", Slug: "vail", Lat: 39.64, Lng: -106.37})
	require.NoError(t, err)
	assert.Equal(t, vail, again, "upsert by slug keeps the id")

	resorts, err := s.ListResorts(ctx)
	require.NoError(t, err)
	require.Len(t, resorts, 2)
	assert.Equal(t, vail, resorts[0].ID)
	assert.Equal(t, "Vail", resorts[0].Name)
	assert.Equal(t, abasin, resorts[1].ID)

	got, err := s.Resort(ctx, abasin)
	require.NoError(t, err)
	assert.Equal(t, "842:CO:SNTL", got.SnotelStation)

	_, err = s.Resort(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.CheckReadiness(ctx))
}

func TestUpsertForecast_IdempotentByNaturalKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedResort(t, s, "vail")

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, domain.PipelineLocation)
	card := "W"
	rows := domain.ForecastRows{
		Daily: []domain.DailyForecastRow{
			{ResortID: id, Date: day, SnowfallIn: ptr(4), TempHighF: ptr(25), WindDirectionCardinal: &card,
				Conditions: domain.ConditionSnow, Confidence: domain.ConfidenceHigh, Source: "open-meteo"},
			{ResortID: id, Date: day.AddDate(0, 0, 1), SnowfallIn: nil, Conditions: domain.ConditionClear,
				Confidence: domain.ConfidenceHigh, Source: "open-meteo"},
		},
		Hourly: []domain.HourlyForecastRow{
			{ResortID: id, Datetime: day, TemperatureF: ptr(12)},
			{ResortID: id, Datetime: day.Add(time.Hour), TemperatureF: ptr(13)},
		},
	}

	n, err := s.UpsertForecast(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// Second run with changed values updates in place.
	rows.Daily[0].SnowfallIn = ptr(6)
	rows.Hourly[1].TemperatureF = ptr(15)
	_, err = s.UpsertForecast(ctx, rows)
	require.NoError(t, err)

	daily, err := s.DailyForecast(ctx, id, day)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.InDelta(t, 6.0, *daily[0].SnowfallIn, 0.0001)
	assert.Equal(t, "2025-01-10", daily[0].Date.Format("2006-01-02"))
	require.NotNil(t, daily[0].WindDirectionCardinal)
	assert.Equal(t, "W", *daily[0].WindDirectionCardinal)
	assert.Nil(t, daily[1].SnowfallIn)
	assert.Equal(t, domain.ConditionClear, daily[1].Conditions)

	hourly, err := s.HourlyForecast(ctx, id, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, hourly, 2)
	assert.True(t, hourly[0].Datetime.Equal(day))
	assert.InDelta(t, 15.0, *hourly[1].TemperatureF, 0.0001)

	later, err := s.DailyForecast(ctx, id, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, later, 1)

	updated, err := s.ForecastUpdatedAt(ctx, id)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())
}

func TestForecastUpdatedAt_NoRows(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ForecastUpdatedAt(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestConditions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedResort(t, s, "loveland")

	_, err := s.Conditions(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	at := time.Date(2025, 2, 1, 19, 0, 0, 0, time.UTC)
	c := domain.ResortConditions{ResortID: id, ObservedSnowfall: domain.ObservedSnowfall{Snowfall24hIn: 2, Snowfall48hIn: 5, Snowfall72hIn: 5}, UpdatedAt: at}
	require.NoError(t, s.UpsertConditions(ctx, c))

	c.Snowfall24hIn = 3
	require.NoError(t, s.UpsertConditions(ctx, c))

	got, err := s.Conditions(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Snowfall24hIn, 0.0001)
	assert.InDelta(t, 5.0, got.Snowfall72hIn, 0.0001)
	assert.True(t, got.UpdatedAt.Equal(at))
}

func TestSnowpack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := seedResort(t, s, "copper")

	day := time.Date(2025, 1, 10, 0, 0, 0, 0, domain.PipelineLocation)
	readings := []domain.SnowpackReading{
		{StationTriplet: "415:CO:SNTL", ResortID: id, Date: day, SWEIn: ptr(9.8), SnowDepthIn: ptr(41), Source: "snotel"},
		{StationTriplet: "415:CO:SNTL", ResortID: id, Date: day.AddDate(0, 0, 1), SWEIn: ptr(10.1), Source: "snotel"},
	}
	n, err := s.UpsertSnowpack(ctx, readings)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	readings[1].SnowDepthIn = ptr(43)
	_, err = s.UpsertSnowpack(ctx, readings[1:])
	require.NoError(t, err)

	got, err := s.Snowpack(ctx, id, day)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].SnowDepthIn)
	assert.InDelta(t, 43.0, *got[1].SnowDepthIn, 0.0001)

	n, err = s.UpsertSnowpack(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDriveTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	vail := seedResort(t, s, "vail")
	eldora := seedResort(t, s, "eldora")

	err := s.UpsertDriveTimes(ctx, []domain.DriveTime{
		{OriginCity: "Denver", OriginLat: 39.74, OriginLng: -104.99, ResortID: vail, DurationMinutes: 120, DistanceMiles: 97},
		{OriginCity: "Denver", OriginLat: 39.74, OriginLng: -104.99, ResortID: eldora, DurationMinutes: 65, DistanceMiles: 47},
		{OriginCity: "Boulder", OriginLat: 40.01, OriginLng: -105.27, ResortID: eldora, DurationMinutes: 35, DistanceMiles: 21},
	})
	require.NoError(t, err)

	origins, err := s.Origins(ctx)
	require.NoError(t, err)
	require.Len(t, origins, 2)
	assert.Equal(t, "Boulder", origins[0].City, "ordered by city name")

	drives, err := s.DriveTimesFrom(ctx, domain.Origin{City: "Denver", Lat: 39.74, Lng: -104.99})
	require.NoError(t, err)
	require.Len(t, drives, 2)
	assert.Equal(t, eldora, drives[0].ResortID, "shortest first")
	assert.Equal(t, "eldora", drives[0].ResortName)
	assert.Equal(t, 120, drives[1].DurationMinutes)
	assert.InDelta(t, 39.74, drives[1].OriginLat, 0.0001)
}
