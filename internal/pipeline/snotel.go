package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// SnowpackFetcher reads SNOTEL daily readings for one station.
type SnowpackFetcher interface {
	FetchDaily(ctx context.Context, triplet string, begin, end time.Time) ([]domain.SnowpackReading, error)
}

// SnowpackStore persists SNOTEL readings.
type SnowpackStore interface {
	ResortLister
	UpsertSnowpack(ctx context.Context, readings []domain.SnowpackReading) (int, error)
}

// SnotelDaily pulls yesterday's and today's SWE and snow depth for every
// resort that has a SNOTEL station.
type SnotelDaily struct {
	runner
	store   SnowpackStore
	fetcher SnowpackFetcher
}

func NewSnotelDaily(store SnowpackStore, fetcher SnowpackFetcher, opts Options) *SnotelDaily {
	return &SnotelDaily{runner: newRunner(NameSnotel, opts), store: store, fetcher: fetcher}
}

// Run performs one SNOTEL pull.
func (p *SnotelDaily) Run(ctx context.Context) domain.RunMetrics {
	return p.run(ctx, p.stations, p.refresh)
}

// stations returns the resorts with a configured station.
func (p *SnotelDaily) stations(ctx context.Context) ([]domain.Resort, error) {
	all, err := p.store.ListResorts(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Resort
	for _, r := range all {
		if r.SnotelStation != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *SnotelDaily) refresh(ctx context.Context, resort domain.Resort) (itemResult, error) {
	end := p.clock.Now().In(domain.PipelineLocation)
	begin := end.AddDate(0, 0, -1)
	readings, err := p.fetcher.FetchDaily(ctx, resort.SnotelStation, begin, end)
	if err != nil {
		return itemResult{}, fmt.Errorf("fetch snotel %s: %w", resort.SnotelStation, err)
	}
	if len(readings) == 0 {
		return itemResult{}, nil
	}

	var out itemResult
	for i := range readings {
		readings[i].ResortID = resort.ID
		out.warnings += p.warn(resort, domain.Validate(readings[i], domain.SnowpackRules))
	}
	n, err := p.store.UpsertSnowpack(ctx, readings)
	if err != nil {
		return itemResult{}, persistErr("upsert snowpack", err)
	}
	out.rows = n
	p.invalidate(ctx, cache.SnowpackKey(resort.ID))
	return out, nil
}
