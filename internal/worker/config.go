// Package worker provides background cache prewarming for the bot backend.
// The chat surface expects sub-second answers; prewarming the busiest
// stop/line pairs keeps the first query of the minute off the feed fetch.
package worker

import (
	"time"
)

// StopRoute is one stop/line pair to prewarm.
type StopRoute struct {
	// StopID identifies the physical stop.
	StopID string

	// RouteID is the line number as the feeds publish it.
	RouteID string
}

// RefreshConfig holds configuration for the prewarm job.
type RefreshConfig struct {
	// Pairs are the stop/line pairs to refresh. If empty, uses
	// DefaultRefreshPairs.
	Pairs []StopRoute

	// Concurrency is the number of concurrent refresh operations.
	// Default: 3.
	Concurrency int

	// Timeout is the timeout for each pair. Default: 30 seconds.
	Timeout time.Duration

	// RefreshSchedule enables timetable prewarming. Default: true.
	RefreshSchedule bool

	// RefreshRealTime enables live-estimate prewarming. Default: true.
	RefreshRealTime bool
}

// DefaultRefreshConfig returns the default prewarm configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Pairs:           DefaultRefreshPairs(),
		Concurrency:     3,
		Timeout:         30 * time.Second,
		RefreshSchedule: true,
		RefreshRealTime: true,
	}
}

// DefaultRefreshPairs returns the busiest stop/line pairs of the TUS
// network: the city-centre corridor and the Sardinero and Valdecilla
// branches.
func DefaultRefreshPairs() []StopRoute {
	return []StopRoute{
		{StopID: "54", RouteID: "1"},   // Jardines de Pereda
		{StopID: "54", RouteID: "2"},   // Jardines de Pereda
		{StopID: "247", RouteID: "1"},  // Cuatro Caminos
		{StopID: "247", RouteID: "5C1"}, // Cuatro Caminos
		{StopID: "501", RouteID: "12"}, // Ayuntamiento
		{StopID: "340", RouteID: "3"},  // Valdecilla
		{StopID: "129", RouteID: "7C1"}, // El Sardinero
		{StopID: "130", RouteID: "7C2"}, // El Sardinero
	}
}

// TotalPairs returns the number of pairs to refresh.
func (c RefreshConfig) TotalPairs() int {
	return len(c.Pairs)
}
