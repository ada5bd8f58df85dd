// Package bus reconciles the two TUS Santander open-data feeds (scheduled
// timetable and live fleet estimates) into ranked, cached departure answers.
package bus

import (
	"context"
	"errors"
)

// Bus data errors.
var (
	// ErrFeedUnavailable wraps transport and parse failures from the
	// open-data provider. The service never retries internally; the next
	// user-triggered call retries naturally.
	ErrFeedUnavailable = errors.New("bus feed unavailable")
)

// MaxResults caps how many departures or estimates an answer carries.
const MaxResults = 5

// ScheduledStopTime is one validated record from the scheduled-timetable
// feed: line X passes stop Y at a fixed clock time.
type ScheduledStopTime struct {
	// Line is the route identifier as published by the feed.
	Line string

	// StopID identifies the physical stop.
	StopID string

	// ClockSeconds is the departure time as seconds since local midnight.
	ClockSeconds int

	// StopName is the human-readable stop/destination label.
	StopName string

	// Trip and Service identify the timetable entry.
	Trip    string
	Service string
}

// LiveEstimate is one validated record from the fleet-estimate feed. A single
// tracked bus reports up to two destination legs; a missing leg has an ETA of
// zero.
type LiveEstimate struct {
	// Line is the route label as published by the feed.
	Line string

	// StopID identifies the physical stop.
	StopID string

	// BusID identifies the tracked vehicle.
	BusID string

	// ReportedAt is the feed's own timestamp for the estimate.
	ReportedAt string

	// Leg 1: primary destination.
	Destination1    string
	EtaSeconds1     int
	DistanceMeters1 int

	// Leg 2: secondary destination.
	Destination2    string
	EtaSeconds2     int
	DistanceMeters2 int
}

// Provider fetches the raw feeds. The endpoints are not filterable
// server-side, so both calls return the full network and the service filters
// locally.
type Provider interface {
	// ScheduledStopTimes fetches the complete scheduled timetable.
	ScheduledStopTimes(ctx context.Context) ([]ScheduledStopTime, error)

	// LiveEstimates fetches the complete live fleet-estimate snapshot.
	LiveEstimates(ctx context.Context) ([]LiveEstimate, error)

	// Name identifies the provider for logging.
	Name() string
}

// ScheduledDeparture is one upcoming timetable departure for a queried stop
// and line.
type ScheduledDeparture struct {
	// Time is the departure rendered as HH:MM.
	Time string `json:"time"`

	// ClockSeconds is the departure as seconds since local midnight.
	ClockSeconds int `json:"clock_seconds"`

	// Destination is the stop/destination label from the timetable.
	Destination string `json:"destination"`

	// Trip and Service identify the timetable entry.
	Trip    string `json:"trip"`
	Service string `json:"service"`

	// MinutesFromNow is the signed whole-minute distance from the query
	// instant; always positive in an answer since past departures are
	// filtered out.
	MinutesFromNow int `json:"minutes_from_now"`
}

// ScheduleAnswer is the timetable answer for one stop and line.
//
// A nil *ScheduleAnswer from the service means the (stop, line) pair is
// unknown to the feed; an answer with Empty=true means the pair is valid but
// nothing departs later today. Callers must not conflate the two.
type ScheduleAnswer struct {
	// Departures are the soonest departures, ascending, at most MaxResults.
	Departures []ScheduledDeparture `json:"departures"`

	// AsOf is the HH:MM instant the answer was computed at.
	AsOf string `json:"as_of"`

	// Empty reports a valid pair with no departures left today.
	Empty bool `json:"empty"`
}

// LiveBus is one live arrival estimate after latency adjustment.
type LiveBus struct {
	// Destination is the leg's destination label.
	Destination string `json:"destination"`

	// EtaSeconds is the adjusted estimate, always > 0 in an answer.
	EtaSeconds int `json:"eta_seconds"`

	// EtaMinutes is EtaSeconds rounded to whole minutes.
	EtaMinutes int `json:"eta_minutes"`

	// DistanceMeters is the bus's reported distance to the stop.
	DistanceMeters int `json:"distance_meters"`

	// BusID identifies the tracked vehicle.
	BusID string `json:"bus_id"`

	// ReportedAt is the feed's own timestamp for the estimate.
	ReportedAt string `json:"reported_at"`
}

// RealTimeAnswer is the live-estimate answer for one stop and line. Unlike
// the schedule feed, the estimate feed has an opinion about every known stop,
// so "no matching record" is the well-defined Empty state rather than nil.
type RealTimeAnswer struct {
	// Buses are the soonest estimates, ascending by EtaSeconds, at most
	// MaxResults.
	Buses []LiveBus `json:"buses"`

	// AsOf is the HH:MM instant the answer was computed at.
	AsOf string `json:"as_of"`

	// Empty reports that no bus is currently tracked toward this stop.
	Empty bool `json:"empty"`
}
