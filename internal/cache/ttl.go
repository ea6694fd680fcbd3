package cache

import "time"

// TTLs per entity kind. Orchestrators invalidate on write; these only bound
// staleness when an invalidation is missed.
const (
	TTLResort         = 30 * time.Minute
	TTLForecast       = 3 * time.Hour
	TTLForecastHourly = 3 * time.Hour
	TTLConditions     = time.Hour
	TTLSnowpack       = 12 * time.Hour
	TTLDriveTimes     = 7 * 24 * time.Hour
	TTLRegionCompare  = time.Hour
	TTLRankings       = time.Hour
	TTLChaseAlerts    = 30 * time.Minute
	TTLRoad           = 15 * time.Minute
	TTLNarrative      = 6 * time.Hour
)
