package query

import (
	"context"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// ConditionsReader loads the observed-snowfall summary of one resort.
type ConditionsReader interface {
	Conditions(ctx context.Context, resortID int64) (domain.ResortConditions, error)
}

// ConditionsService serves recent observed snowfall.
type ConditionsService struct {
	store ConditionsReader
	cache *cache.Cache
}

func NewConditionsService(store ConditionsReader, c *cache.Cache) *ConditionsService {
	return &ConditionsService{store: store, cache: c}
}

// Conditions returns domain.ErrNotFound until the first conditions refresh
// has written the resort.
func (s *ConditionsService) Conditions(ctx context.Context, resortID int64) (domain.ResortConditions, error) {
	return cache.GetOrSet(ctx, s.cache, cache.ConditionsKey(resortID), cache.TTLConditions, func(ctx context.Context) (domain.ResortConditions, error) {
		return s.store.Conditions(ctx, resortID)
	})
}
