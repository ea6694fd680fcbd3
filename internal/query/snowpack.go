package query

import (
	"context"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

const snowpackHistoryDays = 30

// SnowpackReader loads SNOTEL readings for one resort.
type SnowpackReader interface {
	Resort(ctx context.Context, id int64) (domain.Resort, error)
	Snowpack(ctx context.Context, resortID int64, from time.Time) ([]domain.SnowpackReading, error)
}

// SnowpackService serves the recent SNOTEL history of a resort.
type SnowpackService struct {
	store SnowpackReader
	cache *cache.Cache
	clock clockwork.Clock
}

func NewSnowpackService(store SnowpackReader, c *cache.Cache, clock clockwork.Clock) *SnowpackService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SnowpackService{store: store, cache: c, clock: clock}
}

// Snowpack returns the last 30 days of readings, oldest first. Resorts without
// a station return an empty list; unknown resorts return domain.ErrNotFound.
func (s *SnowpackService) Snowpack(ctx context.Context, resortID int64) ([]domain.SnowpackReading, error) {
	from := s.clock.Now().In(domain.PipelineLocation).AddDate(0, 0, -snowpackHistoryDays)
	readings, err := cache.GetOrSet(ctx, s.cache, cache.SnowpackKey(resortID), cache.TTLSnowpack, func(ctx context.Context) ([]domain.SnowpackReading, error) {
		if _, err := s.store.Resort(ctx, resortID); err != nil {
			return nil, err
		}
		return s.store.Snowpack(ctx, resortID, from)
	})
	if err != nil {
		return nil, err
	}
	return nonNil(readings), nil
}
