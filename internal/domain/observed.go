package domain

import (
	"fmt"
	"math"
	"time"
)

// Observation windows, in hours, for rolling snowfall sums.
const (
	window24h = 24.0
	window48h = 48.0
	window72h = 72.0
)

// ParseObservedTimes parses the hourly time axis of an observed response at
// the offset the response was stamped with.
func ParseObservedTimes(raw *RawObservedResponse) ([]time.Time, error) {
	loc := responseLocation(raw.Timezone, raw.UTCOffsetSeconds)
	times := make([]time.Time, len(raw.Hourly.Time))
	for i, ts := range raw.Hourly.Time {
		t, err := time.ParseInLocation(hourlyTimeLayout, ts, loc)
		if err != nil {
			return nil, fmt.Errorf("parse observed time %q at index %d: %w", ts, i, err)
		}
		times[i] = t
	}
	return times, nil
}

// AccumulateObservedSnowfall sums hourly snowfall into 24h/48h/72h windows
// ending at now. A sample counts toward every window whose length its age is
// within (inclusive). Nil, zero, and negative readings are skipped, as are
// samples stamped after now. Each sum is rounded to one decimal independently.
//
// It returns nil when there are no samples at all, which callers treat as
// "no data" rather than zero accumulation.
func AccumulateObservedSnowfall(now time.Time, times []time.Time, snowfall []*float64) *ObservedSnowfall {
	if len(times) == 0 {
		return nil
	}

	var s24, s48, s72 float64
	for i, t := range times {
		v := at(snowfall, i)
		if v == nil || *v <= 0 {
			continue
		}
		age := now.Sub(t).Hours()
		if age < 0 {
			continue
		}
		if age <= window24h {
			s24 += *v
		}
		if age <= window48h {
			s48 += *v
		}
		if age <= window72h {
			s72 += *v
		}
	}

	return &ObservedSnowfall{
		Snowfall24hIn: roundTenth(s24),
		Snowfall48hIn: roundTenth(s48),
		Snowfall72hIn: roundTenth(s72),
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
