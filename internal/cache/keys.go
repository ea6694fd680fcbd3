package cache

import (
	"strconv"
	"strings"
)

// Keys follow {domain}:{entity}:{identifier}. Build them only through these
// helpers so invalidation patterns keep matching what readers store.

const keyDomain = "snowline"

// Entity kinds.
const (
	EntityResort         = "resort"
	EntityForecast       = "forecast"
	EntityForecastHourly = "forecast-hourly"
	EntityConditions     = "conditions"
	EntitySnowpack       = "snowpack"
	EntityDriveTimes     = "drive-times"
	EntityRegionCompare  = "region-compare"
	EntityRankings       = "rankings"
	EntityChaseAlerts    = "chase-alerts"
	EntityRoad           = "road"
	EntityNarrative      = "narrative"
)

func key(entity, id string) string {
	return keyDomain + ":" + entity + ":" + id
}

func pattern(entity string) string {
	return keyDomain + ":" + entity + ":*"
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func ResortKey(slug string) string { return key(EntityResort, slug) }
func ForecastKey(resortID int64) string { return key(EntityForecast, id(resortID)) }
func ForecastHourlyKey(resortID int64) string { return key(EntityForecastHourly, id(resortID)) }
func ConditionsKey(resortID int64) string { return key(EntityConditions, id(resortID)) }
func SnowpackKey(resortID int64) string { return key(EntitySnowpack, id(resortID)) }
func RegionCompareKey(region string) string { return key(EntityRegionCompare, region) }
func RankingsKey(kind string) string { return key(EntityRankings, kind) }
func ChaseAlertsKey() string { return key(EntityChaseAlerts, "all") }
func RoadKey(route string) string { return key(EntityRoad, route) }

// NarrativeKey scopes a generated narrative by variant, e.g. "daily" or "chase".
func NarrativeKey(variant, id string) string {
	return key(EntityNarrative, variant+":"+id)
}

// DriveTimesKey is keyed by the resolved origin city, not the raw query, so
// every coordinate near the same origin shares one entry.
func DriveTimesKey(originCity string) string {
	return key(EntityDriveTimes, strings.ToLower(strings.ReplaceAll(originCity, " ", "-")))
}

func ResortPattern() string { return pattern(EntityResort) }
func ForecastPattern() string { return pattern(EntityForecast) }
func ForecastHourlyPattern() string { return pattern(EntityForecastHourly) }
func ConditionsPattern() string { return pattern(EntityConditions) }
func SnowpackPattern() string { return pattern(EntitySnowpack) }
func DriveTimesPattern() string { return pattern(EntityDriveTimes) }
func RankingsPattern() string { return pattern(EntityRankings) }
func RegionComparePattern() string { return pattern(EntityRegionCompare) }
func NarrativePattern() string { return pattern(EntityNarrative) }
