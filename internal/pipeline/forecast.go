package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// ForecastFetcher is the forecast half of the weather client.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, lat, lng, elevationFt float64) (*domain.RawForecastResponse, error)
}

// ForecastStore persists daily and hourly forecast rows.
type ForecastStore interface {
	ResortLister
	UpsertForecast(ctx context.Context, rows domain.ForecastRows) (int, error)
}

// ForecastRefresh re-fetches the 16-day forecast for every resort.
type ForecastRefresh struct {
	runner
	store   ForecastStore
	fetcher ForecastFetcher
}

func NewForecastRefresh(store ForecastStore, fetcher ForecastFetcher, opts Options) *ForecastRefresh {
	return &ForecastRefresh{runner: newRunner(NameForecast, opts), store: store, fetcher: fetcher}
}

// Run performs one forecast refresh.
func (p *ForecastRefresh) Run(ctx context.Context) domain.RunMetrics {
	return p.run(ctx, p.store.ListResorts, p.refresh)
}

func (p *ForecastRefresh) refresh(ctx context.Context, resort domain.Resort) (itemResult, error) {
	raw, err := p.fetcher.FetchForecast(ctx, resort.Lat, resort.Lng, resort.ElevationFt)
	if err != nil {
		return itemResult{}, fmt.Errorf("fetch forecast: %w", err)
	}
	rows, err := domain.TransformForecast(resort.ID, raw)
	if err != nil {
		return itemResult{}, fmt.Errorf("transform forecast: %w", err)
	}

	var out itemResult
	for _, d := range rows.Daily {
		out.warnings += p.warn(resort, domain.Validate(d, domain.DailyForecastRules))
	}
	for _, h := range rows.Hourly {
		out.warnings += p.warn(resort, domain.Validate(h, domain.HourlyForecastRules))
	}

	n, err := p.store.UpsertForecast(ctx, rows)
	if err != nil {
		return itemResult{}, persistErr("upsert forecast", err)
	}
	out.rows = n
	p.invalidate(ctx, cache.ForecastKey(resort.ID), cache.ForecastHourlyKey(resort.ID))
	return out, nil
}
