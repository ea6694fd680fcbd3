package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// ForecastSource is stamped on every daily row built from the provider.
	ForecastSource = "open-meteo"

	hourlyTimeLayout = "2006-01-02T15:04"
	dailyTimeLayout  = "2006-01-02"

	// snowThresholdIn and rainThresholdIn are the minimum daily totals that
	// classify a day as snow or rain.
	snowThresholdIn = 0.1
	rainThresholdIn = 0.01

	metersToFeet = 3.281
	feetToMeters = 0.3048
)

// compassPoints is indexed by DegreesToCardinal.
var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// TransformForecast maps a raw provider forecast into canonical daily and hourly
// rows. Arrays are read index-aligned with their time arrays; daily index 0 is today.
// It fails only when a timestamp cannot be parsed.
func TransformForecast(resortID int64, raw *RawForecastResponse) (ForecastRows, error) {
	loc := responseLocation(raw.Timezone, raw.UTCOffsetSeconds)
	hourly, err := transformHourly(resortID, raw.Hourly, loc)
	if err != nil {
		return ForecastRows{}, err
	}
	daily, err := transformDaily(resortID, raw.Daily, hourly, loc)
	if err != nil {
		return ForecastRows{}, err
	}
	return ForecastRows{Daily: daily, Hourly: hourly}, nil
}

func transformHourly(resortID int64, h RawHourly, loc *time.Location) ([]HourlyForecastRow, error) {
	rows := make([]HourlyForecastRow, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := time.ParseInLocation(hourlyTimeLayout, ts, loc)
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q at index %d: %w", ts, i, err)
		}
		rows = append(rows, HourlyForecastRow{
			ResortID:         resortID,
			Datetime:         t,
			TemperatureF:     at(h.Temperature2m, i),
			SnowfallIn:       at(h.Snowfall, i),
			PrecipitationIn:  at(h.Precipitation, i),
			WindSpeedMph:     at(h.WindSpeed10m, i),
			WindDirectionDeg: at(h.WindDirection10m, i),
			CloudCoverPct:    at(h.CloudCover, i),
			FreezingLevelFt:  MetersToFeet(at(h.FreezingLevelHeight, i)),
		})
	}
	return rows, nil
}

func transformDaily(resortID int64, d RawDaily, hourly []HourlyForecastRow, loc *time.Location) ([]DailyForecastRow, error) {
	freezing, cloud := hourlyDayMeans(hourly)

	rows := make([]DailyForecastRow, 0, len(d.Time))
	for i, ds := range d.Time {
		date, err := time.ParseInLocation(dailyTimeLayout, ds, loc)
		if err != nil {
			return nil, fmt.Errorf("parse daily time %q at index %d: %w", ds, i, err)
		}
		snowfall := at(d.SnowfallSum, i)
		precip := at(d.PrecipitationSum, i)

		row := DailyForecastRow{
			ResortID:              resortID,
			Date:                  date,
			SnowfallIn:            snowfall,
			TempHighF:             at(d.Temperature2mMax, i),
			TempLowF:              at(d.Temperature2mMin, i),
			WindSpeedMph:          at(d.WindSpeed10mMax, i),
			WindDirectionCardinal: DegreesToCardinal(at(d.WindDirection10mDominant, i)),
			CloudCoverPct:         cloud[ds],
			PrecipProbabilityPct:  at(d.PrecipitationProbabilityMax, i),
			Conditions:            InferConditions(valueOr(snowfall), valueOr(precip)),
			Confidence:            ConfidenceForDay(i),
			Source:                ForecastSource,
		}
		if ft, ok := freezing[ds]; ok {
			row.FreezingLevelFt = &ft
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// hourlyDayMeans averages the hourly freezing level (ft) and cloud cover (%)
// per calendar day, skipping absent samples. Days with no samples are omitted.
func hourlyDayMeans(hourly []HourlyForecastRow) (map[string]int, map[string]*float64) {
	type acc struct {
		sum float64
		n   int
	}
	fz := make(map[string]*acc)
	cc := make(map[string]*acc)
	add := func(m map[string]*acc, day string, v float64) {
		a, ok := m[day]
		if !ok {
			a = &acc{}
			m[day] = a
		}
		a.sum += v
		a.n++
	}

	for _, h := range hourly {
		day := h.Datetime.Format(dailyTimeLayout)
		if h.FreezingLevelFt != nil {
			add(fz, day, float64(*h.FreezingLevelFt))
		}
		if h.CloudCoverPct != nil {
			add(cc, day, *h.CloudCoverPct)
		}
	}

	freezing := make(map[string]int, len(fz))
	for day, a := range fz {
		freezing[day] = int(math.Round(a.sum / float64(a.n)))
	}
	cloud := make(map[string]*float64, len(cc))
	for day, a := range cc {
		mean := math.Round(a.sum / float64(a.n))
		cloud[day] = &mean
	}
	return freezing, cloud
}

// DegreesToCardinal bins a bearing into the 8-point compass. Each point covers
// the 45° sector starting at its bearing, so 0-44° is N and 45° is NE; 360 wraps to N.
// Absent input gives absent output.
//
// This is floor(degrees/45) mod 8, not round(degrees/45) mod 8: rounding would
// put 44° in NE. The cost is that bearings just west of north (e.g. 350°) read
// NW rather than N.
func DegreesToCardinal(degrees *float64) *string {
	if degrees == nil {
		return nil
	}
	idx := int(math.Floor(*degrees/45)) % len(compassPoints)
	if idx < 0 {
		idx += len(compassPoints)
	}
	s := compassPoints[idx]
	return &s
}

// InferConditions classifies a day from its snowfall and precipitation totals.
// Snow takes precedence over rain.
func InferConditions(snowfallIn, precipIn float64) Condition {
	switch {
	case snowfallIn > snowThresholdIn:
		return ConditionSnow
	case precipIn > rainThresholdIn:
		return ConditionRain
	default:
		return ConditionClear
	}
}

// ConfidenceForDay maps a forecast day index (0 = today) to a confidence tier.
func ConfidenceForDay(index int) Confidence {
	switch {
	case index < 3:
		return ConfidenceHigh
	case index < 7:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MetersToFeet converts a freezing level to whole feet. Absent in, absent out.
func MetersToFeet(meters *float64) *int {
	if meters == nil {
		return nil
	}
	ft := int(math.Round(*meters * metersToFeet))
	return &ft
}

// FeetToMeters converts a resort elevation to the nearest whole meter.
func FeetToMeters(feet float64) int {
	return int(math.Round(feet * feetToMeters))
}

// at returns s[i], or nil when the array is shorter than the time axis.
func at(s []*float64, i int) *float64 {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

func valueOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
