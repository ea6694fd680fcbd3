// Package store persists resorts, forecasts, observed conditions, snowpack
// readings and drive times with GORM. Writes are upserts on each table's
// natural key. Schema is managed outside the service; Migrate exists for
// tests and the local sqlite setup.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Supported DATABASE_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const hourlyBatchSize = 200

// Store is the persistence collaborator.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects using the named driver and DSN.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- resorts ---

// ListResorts returns every resort ordered by id.
func (s *Store) ListResorts(ctx context.Context) ([]domain.Resort, error) {
	var rows []resortRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resorts: %w", err)
	}
	out := make([]domain.Resort, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// Resort returns one resort, or domain.ErrNotFound.
func (s *Store) Resort(ctx context.Context, id int64) (domain.Resort, error) {
	var row resortRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Resort{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Resort{}, fmt.Errorf("get resort %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// UpsertResort inserts or updates a resort by slug and returns its id.
func (s *Store) UpsertResort(ctx context.Context, r domain.Resort) (int64, error) {
	row := resortRow{
		ID:            r.ID,
		Name:          r.Name,
		Slug:          r.Slug,
		Lat:           r.Lat,
		Lng:           r.Lng,
		ElevationFt:   r.ElevationFt,
		SnotelStation: r.SnotelStation,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "lat", "lng", "elevation_ft", "snotel_station"}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("upsert resort %s: %w", r.Slug, err)
	}
	if row.ID == 0 {
		if err := s.db.WithContext(ctx).Where("slug = ?", r.Slug).Select("id").Take(&row).Error; err != nil {
			return 0, fmt.Errorf("resolve resort id %s: %w", r.Slug, err)
		}
	}
	return row.ID, nil
}

// --- forecasts ---

// UpsertForecast writes daily and hourly rows in one transaction and returns
// the number of rows written.
func (s *Store) UpsertForecast(ctx context.Context, rows domain.ForecastRows) (int, error) {
	now := domain.Now().UTC()
	daily := make([]dailyForecastRow, len(rows.Daily))
	for i, d := range rows.Daily {
		daily[i] = fromDaily(d, now)
	}
	hourly := make([]hourlyForecastRow, len(rows.Hourly))
	for i, h := range rows.Hourly {
		hourly[i] = fromHourly(h)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(daily) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "resort_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns(dailyUpdateColumns),
			}).Create(&daily).Error
			if err != nil {
				return fmt.Errorf("daily: %w", err)
			}
		}
		if len(hourly) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "resort_id"}, {Name: "datetime"}},
				DoUpdates: clause.AssignmentColumns(hourlyUpdateColumns),
			}).CreateInBatches(&hourly, hourlyBatchSize).Error
			if err != nil {
				return fmt.Errorf("hourly: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert forecast: %w", err)
	}
	return len(daily) + len(hourly), nil
}

// DailyForecast returns daily rows for a resort on or after from, by date.
func (s *Store) DailyForecast(ctx context.Context, resortID int64, from time.Time) ([]domain.DailyForecastRow, error) {
	var rows []dailyForecastRow
	err := s.db.WithContext(ctx).
		Where("resort_id = ? AND date >= ?", resortID, from.In(domain.PipelineLocation).Format(dayLayout)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily forecast %d: %w", resortID, err)
	}
	out := make([]domain.DailyForecastRow, 0, len(rows))
	for _, r := range rows {
		d, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("daily forecast %d: %w", resortID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// HourlyForecast returns hourly rows for a resort in [from, to), by time.
func (s *Store) HourlyForecast(ctx context.Context, resortID int64, from, to time.Time) ([]domain.HourlyForecastRow, error) {
	var rows []hourlyForecastRow
	err := s.db.WithContext(ctx).
		Where("resort_id = ? AND datetime >= ? AND datetime < ?", resortID, from.UTC(), to.UTC()).
		Order("datetime").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("hourly forecast %d: %w", resortID, err)
	}
	out := make([]domain.HourlyForecastRow, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// ForecastUpdatedAt returns the latest write time of a resort's daily rows,
// or the zero time when none exist.
func (s *Store) ForecastUpdatedAt(ctx context.Context, resortID int64) (time.Time, error) {
	var row dailyForecastRow
	err := s.db.WithContext(ctx).
		Where("resort_id = ?", resortID).
		Order("updated_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("forecast freshness %d: %w", resortID, err)
	}
	return row.UpdatedAt, nil
}

// --- observed conditions ---

// UpsertConditions writes the rolling observed snowfall for one resort.
func (s *Store) UpsertConditions(ctx context.Context, c domain.ResortConditions) error {
	row := conditionsRow{
		ResortID:      c.ResortID,
		Snowfall24hIn: c.Snowfall24hIn,
		Snowfall48hIn: c.Snowfall48hIn,
		Snowfall72hIn: c.Snowfall72hIn,
		UpdatedAt:     c.UpdatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resort_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"snowfall_24h_in", "snowfall_48h_in", "snowfall_72h_in", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert conditions %d: %w", c.ResortID, err)
	}
	return nil
}

// Conditions returns the stored observed snowfall, or domain.ErrNotFound.
func (s *Store) Conditions(ctx context.Context, resortID int64) (domain.ResortConditions, error) {
	var row conditionsRow
	err := s.db.WithContext(ctx).Where("resort_id = ?", resortID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ResortConditions{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ResortConditions{}, fmt.Errorf("conditions %d: %w", resortID, err)
	}
	return domain.ResortConditions{
		ResortID: row.ResortID,
		ObservedSnowfall: domain.ObservedSnowfall{
			Snowfall24hIn: row.Snowfall24hIn,
			Snowfall48hIn: row.Snowfall48hIn,
			Snowfall72hIn: row.Snowfall72hIn,
		},
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// --- snowpack ---

// UpsertSnowpack writes SNOTEL readings keyed by (station, date).
func (s *Store) UpsertSnowpack(ctx context.Context, readings []domain.SnowpackReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}
	rows := make([]snowpackRow, len(readings))
	for i, r := range readings {
		rows[i] = snowpackRow{
			StationTriplet: r.StationTriplet,
			Date:           r.Date.Format(dayLayout),
			ResortID:       r.ResortID,
			SWEIn:          r.SWEIn,
			SnowDepthIn:    r.SnowDepthIn,
			Source:         r.Source,
		}
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_triplet"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"resort_id", "swe_in", "snow_depth_in", "source"}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("upsert snowpack: %w", err)
	}
	return len(rows), nil
}

// Snowpack returns a resort's readings on or after from, by date.
func (s *Store) Snowpack(ctx context.Context, resortID int64, from time.Time) ([]domain.SnowpackReading, error) {
	var rows []snowpackRow
	err := s.db.WithContext(ctx).
		Where("resort_id = ? AND date >= ?", resortID, from.Format(dayLayout)).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("snowpack %d: %w", resortID, err)
	}
	out := make([]domain.SnowpackReading, 0, len(rows))
	for _, r := range rows {
		d, err := time.ParseInLocation(dayLayout, r.Date, domain.PipelineLocation)
		if err != nil {
			return nil, fmt.Errorf("snowpack %d: %w", resortID, err)
		}
		out = append(out, domain.SnowpackReading{
			StationTriplet: r.StationTriplet,
			ResortID:       r.ResortID,
			Date:           d,
			SWEIn:          r.SWEIn,
			SnowDepthIn:    r.SnowDepthIn,
			Source:         r.Source,
		})
	}
	return out, nil
}

// --- drive times ---

// Origins returns every drive-time origin ordered by city name.
func (s *Store) Origins(ctx context.Context) ([]domain.Origin, error) {
	var rows []originRow
	if err := s.db.WithContext(ctx).Order("city").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list origins: %w", err)
	}
	out := make([]domain.Origin, len(rows))
	for i, r := range rows {
		out[i] = domain.Origin{City: r.City, Lat: r.Lat, Lng: r.Lng}
	}
	return out, nil
}

// UpsertDriveTimes stores precomputed drives and their origin cities.
func (s *Store) UpsertDriveTimes(ctx context.Context, drives []domain.DriveTime) error {
	if len(drives) == 0 {
		return nil
	}
	origins := map[string]originRow{}
	rows := make([]driveTimeRow, len(drives))
	for i, d := range drives {
		origins[d.OriginCity] = originRow{City: d.OriginCity, Lat: d.OriginLat, Lng: d.OriginLng}
		rows[i] = driveTimeRow{
			OriginCity:      d.OriginCity,
			ResortID:        d.ResortID,
			DurationMinutes: d.DurationMinutes,
			DistanceMiles:   d.DistanceMiles,
		}
	}
	originRows := make([]originRow, 0, len(origins))
	for _, o := range origins {
		originRows = append(originRows, o)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city"}},
			DoUpdates: clause.AssignmentColumns([]string{"lat", "lng"}),
		}).Create(&originRows).Error
		if err != nil {
			return fmt.Errorf("upsert origins: %w", err)
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "origin_city"}, {Name: "resort_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"duration_minutes", "distance_miles"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert drive times: %w", err)
		}
		return nil
	})
}

// DriveTimesFrom returns the drives from one origin, shortest first.
func (s *Store) DriveTimesFrom(ctx context.Context, origin domain.Origin) ([]domain.DriveTime, error) {
	type joined struct {
		driveTimeRow
		ResortName string
	}
	var rows []joined
	err := s.db.WithContext(ctx).
		Table("drive_times").
		Select("drive_times.*, resorts.name AS resort_name").
		Joins("JOIN resorts ON resorts.id = drive_times.resort_id").
		Where("drive_times.origin_city = ?", origin.City).
		Order("drive_times.duration_minutes, resorts.name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("drive times from %s: %w", origin.City, err)
	}
	out := make([]domain.DriveTime, len(rows))
	for i, r := range rows {
		out[i] = domain.DriveTime{
			OriginCity:      r.OriginCity,
			OriginLat:       origin.Lat,
			OriginLng:       origin.Lng,
			ResortID:        r.ResortID,
			ResortName:      r.ResortName,
			DurationMinutes: r.DurationMinutes,
			DistanceMiles:   r.DistanceMiles,
		}
	}
	return out, nil
}
