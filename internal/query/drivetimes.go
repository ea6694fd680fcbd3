package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// ErrGeocodingDisabled is returned for free-text lookups when no geocoder is configured.
var ErrGeocodingDisabled = errors.New("place search is not enabled")

// DriveTimeReader loads origins and their precomputed drives.
type DriveTimeReader interface {
	Origins(ctx context.Context) ([]domain.Origin, error)
	DriveTimesFrom(ctx context.Context, origin domain.Origin) ([]domain.DriveTime, error)
}

// DriveTimes is the drive-times endpoint payload.
type DriveTimes struct {
	OriginCity string             `json:"originCity"`
	DriveTimes []domain.DriveTime `json:"driveTimes"`
}

// DriveTimeService maps a user location to the nearest seeded origin and
// returns that origin's drives.
type DriveTimeService struct {
	store    DriveTimeReader
	cache    *cache.Cache
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewDriveTimeService creates the service. A nil geocoder disables ForPlace.
func NewDriveTimeService(store DriveTimeReader, c *cache.Cache, geocoder domain.Geocoder, logger *slog.Logger) *DriveTimeService {
	return &DriveTimeService{store: store, cache: c, geocoder: geocoder, logger: logger}
}

// Near returns drives from the origin closest to (lat, lng). It returns
// domain.ErrNotFound when no origins are seeded.
func (s *DriveTimeService) Near(ctx context.Context, lat, lng float64) (DriveTimes, error) {
	origins, err := s.store.Origins(ctx)
	if err != nil {
		return DriveTimes{}, err
	}
	origin, err := domain.ResolveOrigin(lat, lng, origins)
	if err != nil {
		return DriveTimes{}, err
	}

	drives, err := cache.GetOrSet(ctx, s.cache, cache.DriveTimesKey(origin.City), cache.TTLDriveTimes, func(ctx context.Context) ([]domain.DriveTime, error) {
		return s.store.DriveTimesFrom(ctx, origin)
	})
	if err != nil {
		return DriveTimes{}, err
	}
	return DriveTimes{OriginCity: origin.City, DriveTimes: nonNil(drives)}, nil
}

// ForPlace geocodes a free-text place and delegates to Near. A place the
// geocoder cannot resolve, or a geocoder failure, is reported as
// domain.ErrNotFound.
func (s *DriveTimeService) ForPlace(ctx context.Context, place string) (DriveTimes, error) {
	if s.geocoder == nil {
		return DriveTimes{}, ErrGeocodingDisabled
	}
	res, err := s.geocoder.ForwardGeocode(ctx, place)
	if err != nil {
		s.logger.Warn("geocode failed", "query", place, "error", err)
		return DriveTimes{}, fmt.Errorf("geocode %q: %w", place, domain.ErrNotFound)
	}
	if !res.Found() {
		return DriveTimes{}, fmt.Errorf("geocode %q: %w", place, domain.ErrNotFound)
	}
	return s.Near(ctx, res.Lat, res.Lng)
}
