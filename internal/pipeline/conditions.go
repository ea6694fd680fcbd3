package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// ObservedFetcher returns rolling observed snowfall, or nil when the provider
// had no samples.
type ObservedFetcher interface {
	FetchObservedSnowfall(ctx context.Context, lat, lng, elevationFt float64) (*domain.ObservedSnowfall, error)
}

// ConditionsStore persists observed-snowfall summaries.
type ConditionsStore interface {
	ResortLister
	UpsertConditions(ctx context.Context, c domain.ResortConditions) error
}

// ConditionsRefresh recomputes the 24/48/72h observed snowfall for every resort.
type ConditionsRefresh struct {
	runner
	store   ConditionsStore
	fetcher ObservedFetcher
}

func NewConditionsRefresh(store ConditionsStore, fetcher ObservedFetcher, opts Options) *ConditionsRefresh {
	return &ConditionsRefresh{runner: newRunner(NameConditions, opts), store: store, fetcher: fetcher}
}

// Run performs one conditions refresh.
func (p *ConditionsRefresh) Run(ctx context.Context) domain.RunMetrics {
	return p.run(ctx, p.store.ListResorts, p.refresh)
}

func (p *ConditionsRefresh) refresh(ctx context.Context, resort domain.Resort) (itemResult, error) {
	obs, err := p.fetcher.FetchObservedSnowfall(ctx, resort.Lat, resort.Lng, resort.ElevationFt)
	if err != nil {
		return itemResult{}, fmt.Errorf("fetch observed snowfall: %w", err)
	}
	if obs == nil {
		p.logger.Debug("no observed samples", "resort_id", resort.ID)
		return itemResult{}, nil
	}

	out := itemResult{warnings: p.warn(resort, domain.Validate(*obs, domain.ObservedSnowfallRules))}
	err = p.store.UpsertConditions(ctx, domain.ResortConditions{
		ResortID:         resort.ID,
		ObservedSnowfall: *obs,
		UpdatedAt:        p.clock.Now().UTC(),
	})
	if err != nil {
		return itemResult{}, persistErr("upsert conditions", err)
	}
	out.rows = 1
	p.invalidate(ctx, cache.ConditionsKey(resort.ID), cache.ResortKey(resort.Slug))
	return out, nil
}
