// Package clock provides wall-clock time in the TUS network's timezone and
// conversions between "seconds since local midnight" and HH:MM strings, which
// is how the Santander open-data feeds express departure times.
package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Zone is the timezone of the TUS network. All clock-second math happens here.
const Zone = "Europe/Madrid"

// SecondsPerDay bounds valid clock-second values: [0, SecondsPerDay).
const SecondsPerDay = 24 * 60 * 60

// Clock abstracts the current instant so tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns the current instant.
func (SystemClock) Now() time.Time { return time.Now() }

// TimeSource converts between instants, clock seconds, and HH:MM strings in
// the fixed TUS timezone.
type TimeSource struct {
	clock Clock
	loc   *time.Location
}

// New creates a TimeSource backed by the given clock. A nil clock uses the
// system clock.
func New(clk Clock) (*TimeSource, error) {
	if clk == nil {
		clk = SystemClock{}
	}
	loc, err := time.LoadLocation(Zone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", Zone, err)
	}
	return &TimeSource{clock: clk, loc: loc}, nil
}

// Location returns the fixed TUS timezone.
func (ts *TimeSource) Location() *time.Location { return ts.loc }

// Instant returns the current instant in the TUS timezone.
func (ts *TimeSource) Instant() time.Time {
	return ts.clock.Now().In(ts.loc)
}

// Now returns the current time as seconds since local midnight alongside its
// HH:MM rendering.
func (ts *TimeSource) Now() (clockSeconds int, hhmm string) {
	now := ts.Instant()
	clockSeconds = now.Hour()*3600 + now.Minute()*60 + now.Second()
	return clockSeconds, Format(clockSeconds)
}

// ToClockSeconds parses a feed value holding seconds since local midnight
// (e.g. "31140" for 08:39). Malformed or out-of-range values are errors; the
// caller drops the record.
func ToClockSeconds(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing clock seconds %q: %w", raw, err)
	}
	if n < 0 || n >= SecondsPerDay {
		return 0, fmt.Errorf("clock seconds %d out of range", n)
	}
	return n, nil
}

// Format renders clock seconds as a zero-padded "HH:MM" string. Sub-minute
// remainders are dropped.
func Format(clockSeconds int) string {
	hours := clockSeconds / 3600
	minutes := (clockSeconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// MinutesUntil returns the signed whole-minute distance from nowSeconds to
// clockSeconds, rounded to the nearest minute. Negative means the moment has
// already passed today.
func MinutesUntil(clockSeconds, nowSeconds int) int {
	return int(math.Round(float64(clockSeconds-nowSeconds) / 60))
}
