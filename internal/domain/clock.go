package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for observation ages. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// PipelineTimezone is the IANA zone every provider request pins for day bucketing.
const PipelineTimezone = "America/Denver"

// PipelineLocation is the loaded PipelineTimezone, falling back to UTC when
// the zone database is unavailable.
var PipelineLocation = loadPipelineLocation()

func loadPipelineLocation() *time.Location {
	loc, err := time.LoadLocation(PipelineTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
