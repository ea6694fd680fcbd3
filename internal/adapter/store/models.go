package store

import (
	"time"

	"github.com/couchcryptid/snowline-etl-service/internal/domain"
)

// Table rows. Natural keys carry unique indexes; upserts target them.

type resortRow struct {
	ID            int64   `gorm:"primaryKey"`
	Name          string  `gorm:"not null"`
	Slug          string  `gorm:"uniqueIndex;not null"`
	Lat           float64 `gorm:"not null"`
	Lng           float64 `gorm:"not null"`
	ElevationFt   float64
	SnotelStation string
}

func (resortRow) TableName() string { return "resorts" }

type dailyForecastRow struct {
	ID                    int64  `gorm:"primaryKey"`
	ResortID              int64  `gorm:"uniqueIndex:idx_daily_resort_date;not null"`
	Date                  string `gorm:"uniqueIndex:idx_daily_resort_date;size:10;not null"`
	SnowfallIn            *float64
	TempHighF             *float64 `gorm:"column:temp_high_f"`
	TempLowF              *float64 `gorm:"column:temp_low_f"`
	WindSpeedMph          *float64
	WindDirectionCardinal *string `gorm:"size:2"`
	CloudCoverPct         *float64
	PrecipProbabilityPct  *float64
	FreezingLevelFt       *int
	Conditions            string `gorm:"size:16"`
	Confidence            string `gorm:"size:8"`
	Source                string `gorm:"size:32"`
	Narrative             *string
	UpdatedAt             time.Time
}

func (dailyForecastRow) TableName() string { return "daily_forecasts" }

var dailyUpdateColumns = []string{
	"snowfall_in", "temp_high_f", "temp_low_f", "wind_speed_mph", "wind_direction_cardinal",
	"cloud_cover_pct", "precip_probability_pct", "freezing_level_ft", "conditions", "confidence",
	"source", "updated_at",
}

type hourlyForecastRow struct {
	ID               int64     `gorm:"primaryKey"`
	ResortID         int64     `gorm:"uniqueIndex:idx_hourly_resort_datetime;not null"`
	Datetime         time.Time `gorm:"uniqueIndex:idx_hourly_resort_datetime;not null"`
	TemperatureF     *float64  `gorm:"column:temperature_f"`
	SnowfallIn       *float64
	PrecipitationIn  *float64
	WindSpeedMph     *float64
	WindDirectionDeg *float64
	CloudCoverPct    *float64
	FreezingLevelFt  *int
}

func (hourlyForecastRow) TableName() string { return "hourly_forecasts" }

var hourlyUpdateColumns = []string{
	"temperature_f", "snowfall_in", "precipitation_in", "wind_speed_mph", "wind_direction_deg",
	"cloud_cover_pct", "freezing_level_ft",
}

type conditionsRow struct {
	ResortID      int64   `gorm:"primaryKey;autoIncrement:false"`
	Snowfall24hIn float64 `gorm:"column:snowfall_24h_in"`
	Snowfall48hIn float64 `gorm:"column:snowfall_48h_in"`
	Snowfall72hIn float64 `gorm:"column:snowfall_72h_in"`
	UpdatedAt     time.Time
}

func (conditionsRow) TableName() string { return "resort_conditions" }

type snowpackRow struct {
	ID             int64    `gorm:"primaryKey"`
	StationTriplet string   `gorm:"uniqueIndex:idx_snowpack_station_date;size:32;not null"`
	Date           string   `gorm:"uniqueIndex:idx_snowpack_station_date;size:10;not null"`
	ResortID       int64    `gorm:"index;not null"`
	SWEIn          *float64 `gorm:"column:swe_in"`
	SnowDepthIn    *float64
	Source         string `gorm:"size:32"`
}

func (snowpackRow) TableName() string { return "snowpack_readings" }

type originRow struct {
	City string `gorm:"primaryKey;size:64"`
	Lat  float64
	Lng  float64
}

func (originRow) TableName() string { return "drive_time_origins" }

type driveTimeRow struct {
	ID              int64  `gorm:"primaryKey"`
	OriginCity      string `gorm:"uniqueIndex:idx_drive_origin_resort;size:64;not null"`
	ResortID        int64  `gorm:"uniqueIndex:idx_drive_origin_resort;not null"`
	DurationMinutes int
	DistanceMiles   float64
}

func (driveTimeRow) TableName() string { return "drive_times" }

var allModels = []any{
	&resortRow{},
	&dailyForecastRow{},
	&hourlyForecastRow{},
	&conditionsRow{},
	&snowpackRow{},
	&originRow{},
	&driveTimeRow{},
}

const dayLayout = "2006-01-02"

func (r resortRow) toDomain() domain.Resort {
	return domain.Resort{
		ID:            r.ID,
		Name:          r.Name,
		Slug:          r.Slug,
		Lat:           r.Lat,
		Lng:           r.Lng,
		ElevationFt:   r.ElevationFt,
		SnotelStation: r.SnotelStation,
	}
}

func fromDaily(d domain.DailyForecastRow, now time.Time) dailyForecastRow {
	return dailyForecastRow{
		ResortID:              d.ResortID,
		Date:                  d.Date.Format(dayLayout),
		SnowfallIn:            d.SnowfallIn,
		TempHighF:             d.TempHighF,
		TempLowF:              d.TempLowF,
		WindSpeedMph:          d.WindSpeedMph,
		WindDirectionCardinal: d.WindDirectionCardinal,
		CloudCoverPct:         d.CloudCoverPct,
		PrecipProbabilityPct:  d.PrecipProbabilityPct,
		FreezingLevelFt:       d.FreezingLevelFt,
		Conditions:            string(d.Conditions),
		Confidence:            string(d.Confidence),
		Source:                d.Source,
		Narrative:             d.Narrative,
		UpdatedAt:             now,
	}
}

func (r dailyForecastRow) toDomain() (domain.DailyForecastRow, error) {
	date, err := time.ParseInLocation(dayLayout, r.Date, domain.PipelineLocation)
	if err != nil {
		return domain.DailyForecastRow{}, err
	}
	return domain.DailyForecastRow{
		ResortID:              r.ResortID,
		Date:                  date,
		SnowfallIn:            r.SnowfallIn,
		TempHighF:             r.TempHighF,
		TempLowF:              r.TempLowF,
		WindSpeedMph:          r.WindSpeedMph,
		WindDirectionCardinal: r.WindDirectionCardinal,
		CloudCoverPct:         r.CloudCoverPct,
		PrecipProbabilityPct:  r.PrecipProbabilityPct,
		FreezingLevelFt:       r.FreezingLevelFt,
		Conditions:            domain.Condition(r.Conditions),
		Confidence:            domain.Confidence(r.Confidence),
		Source:                r.Source,
		Narrative:             r.Narrative,
	}, nil
}

func fromHourly(h domain.HourlyForecastRow) hourlyForecastRow {
	return hourlyForecastRow{
		ResortID:         h.ResortID,
		Datetime:         h.Datetime.UTC(),
		TemperatureF:     h.TemperatureF,
		SnowfallIn:       h.SnowfallIn,
		PrecipitationIn:  h.PrecipitationIn,
		WindSpeedMph:     h.WindSpeedMph,
		WindDirectionDeg: h.WindDirectionDeg,
		CloudCoverPct:    h.CloudCoverPct,
		FreezingLevelFt:  h.FreezingLevelFt,
	}
}

func (r hourlyForecastRow) toDomain() domain.HourlyForecastRow {
	return domain.HourlyForecastRow{
		ResortID:         r.ResortID,
		Datetime:         r.Datetime.In(domain.PipelineLocation),
		TemperatureF:     r.TemperatureF,
		SnowfallIn:       r.SnowfallIn,
		PrecipitationIn:  r.PrecipitationIn,
		WindSpeedMph:     r.WindSpeedMph,
		WindDirectionDeg: r.WindDirectionDeg,
		CloudCoverPct:    r.CloudCoverPct,
		FreezingLevelFt:  r.FreezingLevelFt,
	}
}
