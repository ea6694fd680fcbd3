// Package query serves the read path. Every lookup goes through the
// cache-aside layer so a hit never touches the store.
package query

import (
	"context"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

const (
	hourlyWindow = 72 * time.Hour
	// A forecast older than two refresh intervals is reported stale.
	staleAfter = 2 * cache.TTLForecast
)

// ForecastReader is the slice of the store the forecast endpoint needs.
type ForecastReader interface {
	Resort(ctx context.Context, id int64) (domain.Resort, error)
	DailyForecast(ctx context.Context, resortID int64, from time.Time) ([]domain.DailyForecastRow, error)
	HourlyForecast(ctx context.Context, resortID int64, from, to time.Time) ([]domain.HourlyForecastRow, error)
	ForecastUpdatedAt(ctx context.Context, resortID int64) (time.Time, error)
}

// Freshness tells clients how old the stored forecast is.
type Freshness struct {
	UpdatedAt *time.Time `json:"updatedAt"`
	Stale     bool       `json:"stale"`
}

// Forecast is the forecast endpoint payload.
type Forecast struct {
	ResortID  int64                      `json:"resortId"`
	Daily     []domain.DailyForecastRow  `json:"daily"`
	Hourly    []domain.HourlyForecastRow `json:"hourly"`
	Freshness Freshness                  `json:"freshness"`
}

// dailySnapshot is what lives under ForecastKey.
type dailySnapshot struct {
	Daily     []domain.DailyForecastRow `json:"daily"`
	UpdatedAt *time.Time                `json:"updatedAt"`
}

// ForecastService assembles daily and hourly rows for one resort.
type ForecastService struct {
	store ForecastReader
	cache *cache.Cache
	clock clockwork.Clock
}

func NewForecastService(store ForecastReader, c *cache.Cache, clock clockwork.Clock) *ForecastService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ForecastService{store: store, cache: c, clock: clock}
}

// Forecast returns the stored forecast from today on, or domain.ErrNotFound
// for an unknown resort.
func (s *ForecastService) Forecast(ctx context.Context, resortID int64) (Forecast, error) {
	now := s.clock.Now()

	daily, err := cache.GetOrSet(ctx, s.cache, cache.ForecastKey(resortID), cache.TTLForecast, func(ctx context.Context) (dailySnapshot, error) {
		if _, err := s.store.Resort(ctx, resortID); err != nil {
			return dailySnapshot{}, err
		}
		rows, err := s.store.DailyForecast(ctx, resortID, now)
		if err != nil {
			return dailySnapshot{}, err
		}
		updated, err := s.store.ForecastUpdatedAt(ctx, resortID)
		if err != nil {
			return dailySnapshot{}, err
		}
		snap := dailySnapshot{Daily: rows}
		if !updated.IsZero() {
			snap.UpdatedAt = &updated
		}
		return snap, nil
	})
	if err != nil {
		return Forecast{}, err
	}

	hourly, err := cache.GetOrSet(ctx, s.cache, cache.ForecastHourlyKey(resortID), cache.TTLForecastHourly, func(ctx context.Context) ([]domain.HourlyForecastRow, error) {
		from := now.Truncate(time.Hour)
		return s.store.HourlyForecast(ctx, resortID, from, from.Add(hourlyWindow))
	})
	if err != nil {
		return Forecast{}, err
	}

	out := Forecast{
		ResortID:  resortID,
		Daily:     nonNil(daily.Daily),
		Hourly:    nonNil(hourly),
		Freshness: Freshness{UpdatedAt: daily.UpdatedAt, Stale: true},
	}
	if daily.UpdatedAt != nil {
		out.Freshness.Stale = now.Sub(*daily.UpdatedAt) > staleAfter
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
