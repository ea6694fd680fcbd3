package domain

import "fmt"

// ValidationError describes one field that failed a range check. It is a value,
// not a control-flow error: a slice of these is one record's quality assessment.
type ValidationError struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s=%g: %s", e.Field, e.Value, e.Message)
}

// Rule is a closed range predicate over one optional field of T.
type Rule[T any] struct {
	Field   string
	Min     float64
	Max     float64
	Unit    string
	Extract func(T) *float64
}

func (r Rule[T]) check(v T) (ValidationError, bool) {
	p := r.Extract(v)
	if p == nil {
		return ValidationError{}, true
	}
	if *p < r.Min || *p > r.Max {
		return ValidationError{
			Field:   r.Field,
			Value:   *p,
			Message: fmt.Sprintf("outside accepted range [%g, %g] %s", r.Min, r.Max, r.Unit),
		}, false
	}
	return ValidationError{}, true
}

// Validate evaluates every rule against v and returns all violations.
// Absent values are skipped. A nil result means every declared check passed.
func Validate[T any](v T, rules []Rule[T]) []ValidationError {
	var out []ValidationError
	for _, r := range rules {
		if ve, ok := r.check(v); !ok {
			out = append(out, ve)
		}
	}
	return out
}

// Checked pairs a value with its validation violations.
type Checked[T any] struct {
	Value      T
	Violations []ValidationError
}

// OK reports whether the value passed all declared checks.
func (c Checked[T]) OK() bool { return len(c.Violations) == 0 }

// Check validates v and wraps the outcome.
func Check[T any](v T, rules []Rule[T]) Checked[T] {
	return Checked[T]{Value: v, Violations: Validate(v, rules)}
}

// Accepted ranges.
const (
	minTempF, maxTempF             = -60, 130
	minWindMph, maxWindMph         = 0, 200
	maxSnowfall24hIn               = 60
	maxSnowfall48hIn               = 120
	maxSnowfall72hIn               = 180
	maxSWEIn                       = 150
	maxSnowDepthIn                 = 600
	minPercent, maxPercent         = 0, 100
	maxHourlySnowIn, maxHourlyPrec = 12, 12
)

// DailyForecastRules checks temperatures, wind, daily snowfall and percentages.
var DailyForecastRules = []Rule[DailyForecastRow]{
	{Field: "tempHighF", Min: minTempF, Max: maxTempF, Unit: "°F", Extract: func(r DailyForecastRow) *float64 { return r.TempHighF }},
	{Field: "tempLowF", Min: minTempF, Max: maxTempF, Unit: "°F", Extract: func(r DailyForecastRow) *float64 { return r.TempLowF }},
	{Field: "snowfallIn", Min: 0, Max: maxSnowfall24hIn, Unit: "in", Extract: func(r DailyForecastRow) *float64 { return r.SnowfallIn }},
	{Field: "windSpeedMph", Min: minWindMph, Max: maxWindMph, Unit: "mph", Extract: func(r DailyForecastRow) *float64 { return r.WindSpeedMph }},
	{Field: "precipProbabilityPct", Min: minPercent, Max: maxPercent, Unit: "%", Extract: func(r DailyForecastRow) *float64 { return r.PrecipProbabilityPct }},
	{Field: "cloudCoverPct", Min: minPercent, Max: maxPercent, Unit: "%", Extract: func(r DailyForecastRow) *float64 { return r.CloudCoverPct }},
}

// HourlyForecastRules checks the hourly sample fields.
var HourlyForecastRules = []Rule[HourlyForecastRow]{
	{Field: "temperatureF", Min: minTempF, Max: maxTempF, Unit: "°F", Extract: func(r HourlyForecastRow) *float64 { return r.TemperatureF }},
	{Field: "snowfallIn", Min: 0, Max: maxHourlySnowIn, Unit: "in", Extract: func(r HourlyForecastRow) *float64 { return r.SnowfallIn }},
	{Field: "precipitationIn", Min: 0, Max: maxHourlyPrec, Unit: "in", Extract: func(r HourlyForecastRow) *float64 { return r.PrecipitationIn }},
	{Field: "windSpeedMph", Min: minWindMph, Max: maxWindMph, Unit: "mph", Extract: func(r HourlyForecastRow) *float64 { return r.WindSpeedMph }},
	{Field: "cloudCoverPct", Min: minPercent, Max: maxPercent, Unit: "%", Extract: func(r HourlyForecastRow) *float64 { return r.CloudCoverPct }},
}

// ObservedSnowfallRules checks the rolling snowfall windows.
var ObservedSnowfallRules = []Rule[ObservedSnowfall]{
	{Field: "snowfall24h", Min: 0, Max: maxSnowfall24hIn, Unit: "in", Extract: func(o ObservedSnowfall) *float64 { return &o.Snowfall24hIn }},
	{Field: "snowfall48h", Min: 0, Max: maxSnowfall48hIn, Unit: "in", Extract: func(o ObservedSnowfall) *float64 { return &o.Snowfall48hIn }},
	{Field: "snowfall72h", Min: 0, Max: maxSnowfall72hIn, Unit: "in", Extract: func(o ObservedSnowfall) *float64 { return &o.Snowfall72hIn }},
}

// SnowpackRules checks SNOTEL daily readings.
var SnowpackRules = []Rule[SnowpackReading]{
	{Field: "sweIn", Min: 0, Max: maxSWEIn, Unit: "in", Extract: func(s SnowpackReading) *float64 { return s.SWEIn }},
	{Field: "snowDepthIn", Min: 0, Max: maxSnowDepthIn, Unit: "in", Extract: func(s SnowpackReading) *float64 { return s.SnowDepthIn }},
}
