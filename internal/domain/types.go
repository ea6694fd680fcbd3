package domain

import "time"

// Condition is the coarse weather label stored on daily rows.
type Condition string

const (
	ConditionSnow   Condition = "snow"
	ConditionRain   Condition = "rain"
	ConditionClear  Condition = "clear"
	ConditionCloudy Condition = "cloudy"
	ConditionWindy  Condition = "windy"
)

// Confidence labels forecast-horizon uncertainty by day index.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Resort is one destination tracked by the pipelines.
type Resort struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	ElevationFt   float64 `json:"elevationFt"`
	SnotelStation string  `json:"snotelStation,omitempty"` // AWDB triplet, e.g. "335:CO:SNTL"
}

// DailyForecastRow is one forecast day for a resort. Unique per (ResortID, Date).
type DailyForecastRow struct {
	ResortID              int64      `json:"resortId"`
	Date                  time.Time  `json:"date"`
	SnowfallIn            *float64   `json:"snowfallIn"`
	TempHighF             *float64   `json:"tempHighF"`
	TempLowF              *float64   `json:"tempLowF"`
	WindSpeedMph          *float64   `json:"windSpeedMph"`
	WindDirectionCardinal *string    `json:"windDirectionCardinal"`
	CloudCoverPct         *float64   `json:"cloudCoverPct,omitempty"`
	PrecipProbabilityPct  *float64   `json:"precipProbabilityPct"`
	FreezingLevelFt       *int       `json:"freezingLevelFt,omitempty"`
	Conditions            Condition  `json:"conditions"`
	Confidence            Confidence `json:"confidence"`
	Source                string     `json:"source"`
	Narrative             *string    `json:"narrative,omitempty"`
}

// HourlyForecastRow is one forecast hour for a resort. Unique per (ResortID, Datetime).
type HourlyForecastRow struct {
	ResortID         int64     `json:"resortId"`
	Datetime         time.Time `json:"datetime"`
	TemperatureF     *float64  `json:"temperatureF,omitempty"`
	SnowfallIn       *float64  `json:"snowfallIn,omitempty"`
	PrecipitationIn  *float64  `json:"precipitationIn,omitempty"`
	WindSpeedMph     *float64  `json:"windSpeedMph,omitempty"`
	WindDirectionDeg *float64  `json:"windDirectionDeg,omitempty"`
	CloudCoverPct    *float64  `json:"cloudCoverPct,omitempty"`
	FreezingLevelFt  *int      `json:"freezingLevelFt,omitempty"`
}

// ForecastRows is the output of TransformForecast.
type ForecastRows struct {
	Daily  []DailyForecastRow
	Hourly []HourlyForecastRow
}

// ObservedSnowfall holds rolling sums of observed hourly snowfall in inches.
type ObservedSnowfall struct {
	Snowfall24hIn float64 `json:"snowfall24hIn"`
	Snowfall48hIn float64 `json:"snowfall48hIn"`
	Snowfall72hIn float64 `json:"snowfall72hIn"`
}

// ResortConditions is the persisted observed-snowfall summary for one resort.
type ResortConditions struct {
	ResortID int64 `json:"resortId"`
	ObservedSnowfall
	UpdatedAt time.Time `json:"updatedAt"`
}

// SnowpackReading is one SNOTEL daily observation. Unique per (StationTriplet, Date).
type SnowpackReading struct {
	StationTriplet string    `json:"stationTriplet"`
	ResortID       int64     `json:"resortId"`
	Date           time.Time `json:"date"`
	SWEIn          *float64  `json:"sweIn,omitempty"`
	SnowDepthIn    *float64  `json:"snowDepthIn,omitempty"`
	Source         string    `json:"source"`
}

// Origin is a precomputed drive-time reference city.
type Origin struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// DriveTime is the stored drive from an origin city to a resort.
// Unique per (OriginCity, ResortID).
type DriveTime struct {
	OriginCity      string  `json:"originCity"`
	OriginLat       float64 `json:"originLat"`
	OriginLng       float64 `json:"originLng"`
	ResortID        int64   `json:"resortId"`
	ResortName      string  `json:"resortName"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceMiles   float64 `json:"distanceMiles"`
}

// RunStatus is the exit status of one orchestrator invocation.
type RunStatus string

const (
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// RunMetrics summarizes one orchestrator invocation for monitoring.
type RunMetrics struct {
	RunID          string    `json:"runId"`
	Pipeline       string    `json:"pipeline"`
	Status         RunStatus `json:"status"`
	StartedAt      time.Time `json:"startedAt"`
	CompletedAt    time.Time `json:"completedAt"`
	DurationMs     int64     `json:"durationMs"`
	ItemsProcessed int       `json:"itemsProcessed"`
	RowsUpserted   int       `json:"rowsUpserted"`
	Errors         int       `json:"errors"`
	Warnings       int       `json:"warnings"`
}
