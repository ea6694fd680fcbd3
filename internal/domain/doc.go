// Package domain models ski-resort weather and snowpack data after normalization.
//
// # Data Source
//
// Forecasts and recent observations come from the Open-Meteo forecast API
// (https://open-meteo.com/en/docs). Responses are column-oriented: every hourly
// and daily variable is a parallel array index-aligned with a "time" array.
// A null entry means the model produced no value for that sample. SNOTEL daily
// snowpack comes from the NRCS AWDB REST service.
//
// # Conventions
//
// Units:
//
//	Temperatures in °F, wind in mph, snowfall and precipitation in inches.
//	Freezing level arrives in meters and is stored in feet: round(m * 3.281).
//	Resort elevation is stored in feet and sent to the provider in meters.
//
// Day boundaries:
//
//	All requests pin one timezone (America/Denver, see [PipelineLocation]).
//	Daily rows for resorts in other zones are therefore bucketed by Mountain
//	time, not resort-local time. Changing this moves stored day boundaries for
//	historical rows.
//
// Absent values:
//
//	Nulls stay nil in every row. They are never coerced to zero, and the
//	validation engine treats nil as "no claim".
//
// Derived fields:
//
//	Wind direction is binned into an 8-point compass (N, NE, E, SE, S, SW, W, NW).
//	Conditions follow snowfall > 0.1in → snow, precipitation > 0.01in → rain,
//	otherwise clear. "cloudy" and "windy" are valid stored values but are never
//	derived here.
//	Confidence is a horizon proxy: day 0-2 high, 3-6 medium, 7+ low.
//
// # Identity
//
// Rows are upserted on natural keys: (resort, date) for daily forecasts,
// (resort, datetime) for hourly forecasts, resort for conditions,
// (station, date) for snowpack, and (origin city, resort) for drive times.
// The last successful write wins.
package domain
