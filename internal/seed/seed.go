// Package seed loads the reference data the pipelines iterate over: resorts
// and precomputed drive times from origin cities.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/snowline-etl-service/internal/cache"
	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// File is the on-disk seed format.
type File struct {
	Resorts    []domain.Resort `json:"resorts"`
	DriveTimes []DriveTime     `json:"driveTimes"`
}

// DriveTime references its resort by slug so the file does not depend on
// database ids.
type DriveTime struct {
	OriginCity      string  `json:"originCity"`
	OriginLat       float64 `json:"originLat"`
	OriginLng       float64 `json:"originLng"`
	ResortSlug      string  `json:"resortSlug"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceMiles   float64 `json:"distanceMiles"`
}

// Writer is the store surface seeding needs.
type Writer interface {
	UpsertResort(ctx context.Context, r domain.Resort) (int64, error)
	UpsertDriveTimes(ctx context.Context, drives []domain.DriveTime) error
}

// Decode reads a seed file and checks its references. Each origin/resort pair
// may appear once, and an origin city must keep the same coordinates throughout.
func Decode(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}

	slugs := make(map[string]bool, len(f.Resorts))
	for i, res := range f.Resorts {
		if res.Slug == "" || res.Name == "" {
			return File{}, fmt.Errorf("resort %d: name and slug are required", i)
		}
		if slugs[res.Slug] {
			return File{}, fmt.Errorf("resort %d: duplicate slug %q", i, res.Slug)
		}
		slugs[res.Slug] = true
	}
	type pair struct{ origin, slug string }
	pairs := make(map[pair]bool, len(f.DriveTimes))
	origins := make(map[string][2]float64)
	for i, d := range f.DriveTimes {
		if d.OriginCity == "" {
			return File{}, fmt.Errorf("drive time %d: originCity is required", i)
		}
		if !slugs[d.ResortSlug] {
			return File{}, fmt.Errorf("drive time %d: unknown resort %q", i, d.ResortSlug)
		}
		k := pair{d.OriginCity, d.ResortSlug}
		if pairs[k] {
			return File{}, fmt.Errorf("drive time %d: duplicate %s to %q", i, d.OriginCity, d.ResortSlug)
		}
		pairs[k] = true

		coords := [2]float64{d.OriginLat, d.OriginLng}
		if prev, ok := origins[d.OriginCity]; ok && prev != coords {
			return File{}, fmt.Errorf("drive time %d: origin %s has conflicting coordinates (%g, %g) and (%g, %g)",
				i, d.OriginCity, prev[0], prev[1], coords[0], coords[1])
		}
		origins[d.OriginCity] = coords
	}
	return f, nil
}

// Apply upserts the file and drops every cached resort and drive-time entry.
func Apply(ctx context.Context, w Writer, c *cache.Cache, f File, logger *slog.Logger) error {
	ids := make(map[string]int64, len(f.Resorts))
	for _, r := range f.Resorts {
		id, err := w.UpsertResort(ctx, r)
		if err != nil {
			return err
		}
		ids[r.Slug] = id
	}

	drives := make([]domain.DriveTime, len(f.DriveTimes))
	for i, d := range f.DriveTimes {
		drives[i] = domain.DriveTime{
			OriginCity:      d.OriginCity,
			OriginLat:       d.OriginLat,
			OriginLng:       d.OriginLng,
			ResortID:        ids[d.ResortSlug],
			DurationMinutes: d.DurationMinutes,
			DistanceMiles:   d.DistanceMiles,
		}
	}
	if err := w.UpsertDriveTimes(ctx, drives); err != nil {
		return err
	}

	c.InvalidatePattern(ctx, cache.ResortPattern())
	c.InvalidatePattern(ctx, cache.DriveTimesPattern())
	logger.Info("seed applied", "resorts", len(f.Resorts), "drive_times", len(drives))
	return nil
}
