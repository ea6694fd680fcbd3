package domain

import "time"

// Provider response types. Field names follow the Open-Meteo variable names the
// client requests; a variable missing from the request decodes as a nil slice.

// RawForecastResponse is the decoded Open-Meteo forecast payload.
type RawForecastResponse struct {
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Elevation        float64   `json:"elevation"`
	Timezone         string    `json:"timezone"`
	UTCOffsetSeconds *int      `json:"utc_offset_seconds"`
	Hourly           RawHourly `json:"hourly"`
	Daily            RawDaily  `json:"daily"`
}

// RawHourly holds the hourly parallel arrays. Time entries are local to the
// response timezone, formatted "2006-01-02T15:04".
type RawHourly struct {
	Time                []string   `json:"time"`
	Temperature2m       []*float64 `json:"temperature_2m"`
	Snowfall            []*float64 `json:"snowfall"`
	Precipitation       []*float64 `json:"precipitation"`
	WindSpeed10m        []*float64 `json:"wind_speed_10m"`
	WindDirection10m    []*float64 `json:"wind_direction_10m"`
	CloudCover          []*float64 `json:"cloud_cover"`
	FreezingLevelHeight []*float64 `json:"freezing_level_height"`
}

// RawDaily holds the daily parallel arrays. Time entries are "2006-01-02".
type RawDaily struct {
	Time                        []string   `json:"time"`
	Temperature2mMax            []*float64 `json:"temperature_2m_max"`
	Temperature2mMin            []*float64 `json:"temperature_2m_min"`
	SnowfallSum                 []*float64 `json:"snowfall_sum"`
	PrecipitationSum            []*float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	WindSpeed10mMax             []*float64 `json:"wind_speed_10m_max"`
	WindDirection10mDominant    []*float64 `json:"wind_direction_10m_dominant"`
}

// RawObservedResponse is the decoded Open-Meteo past-days payload.
type RawObservedResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds *int    `json:"utc_offset_seconds"`
	Hourly           struct {
		Time     []string   `json:"time"`
		Snowfall []*float64 `json:"snowfall"`
	} `json:"hourly"`
}

// responseLocation returns the zone a response's local timestamps are written
// in. The provider stamps a whole series with the single utc_offset_seconds
// offset, so wall-clock hours never skip or repeat across a DST change. Without
// an offset the pipeline zone is assumed.
func responseLocation(timezone string, offsetSeconds *int) *time.Location {
	if offsetSeconds == nil {
		return PipelineLocation
	}
	if timezone == "" {
		timezone = PipelineTimezone
	}
	return time.FixedZone(timezone, *offsetSeconds)
}
