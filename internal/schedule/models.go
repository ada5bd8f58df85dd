// Package schedule manages per-user weekly time slots: the windows in which
// the automated timeclock actions fire. A user's slot set is always replaced
// wholesale, never edited in place.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// Schedule errors.
var (
	// ErrInvalidSlot marks a slot that failed validation.
	ErrInvalidSlot = errors.New("invalid time slot")
)

// hhmmPattern matches 24-hour HH:MM times, single-digit hour allowed.
var hhmmPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Slot is one weekly time window for a user. Multiple slots per day are
// allowed (split shifts) as long as they do not overlap. Either time may be
// empty, in which case only the other edge of the window fires.
type Slot struct {
	// ID is the storage identifier; zero for unsaved slots.
	ID int64 `json:"id,omitempty"`

	// UserID is the owning chat user.
	UserID string `json:"user_id"`

	// DayOfWeek is 0=Sunday through 6=Saturday.
	DayOfWeek int `json:"day_of_week"`

	// StartTime is the clock-in time as HH:MM, or empty.
	StartTime string `json:"start_time"`

	// EndTime is the clock-out time as HH:MM, or empty.
	EndTime string `json:"end_time"`

	// Active slots schedule jobs; inactive ones are kept but ignored.
	Active bool `json:"is_active"`
}

// Validate checks a single slot's day, time formats, and ordering.
func (s Slot) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week %d out of range 0..6", ErrInvalidSlot, s.DayOfWeek)
	}
	if s.StartTime != "" && !hhmmPattern.MatchString(s.StartTime) {
		return fmt.Errorf("%w: start_time %q is not HH:MM", ErrInvalidSlot, s.StartTime)
	}
	if s.EndTime != "" && !hhmmPattern.MatchString(s.EndTime) {
		return fmt.Errorf("%w: end_time %q is not HH:MM", ErrInvalidSlot, s.EndTime)
	}
	if s.StartTime != "" && s.EndTime != "" {
		start := mustMinutes(s.StartTime)
		end := mustMinutes(s.EndTime)
		if start >= end {
			return fmt.Errorf("%w: start_time %s is not before end_time %s", ErrInvalidSlot, s.StartTime, s.EndTime)
		}
	}
	return nil
}

// ValidateSet validates every slot and rejects overlapping windows within the
// same day.
func ValidateSet(slots []Slot) error {
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	byDay := make(map[int][]Slot)
	for _, s := range slots {
		if s.StartTime != "" && s.EndTime != "" {
			byDay[s.DayOfWeek] = append(byDay[s.DayOfWeek], s)
		}
	}
	for day, daySlots := range byDay {
		sort.Slice(daySlots, func(i, j int) bool {
			return mustMinutes(daySlots[i].StartTime) < mustMinutes(daySlots[j].StartTime)
		})
		for i := 1; i < len(daySlots); i++ {
			if mustMinutes(daySlots[i].StartTime) < mustMinutes(daySlots[i-1].EndTime) {
				return fmt.Errorf("%w: overlapping slots on day %d (%s-%s and %s-%s)",
					ErrInvalidSlot, day,
					daySlots[i-1].StartTime, daySlots[i-1].EndTime,
					daySlots[i].StartTime, daySlots[i].EndTime)
			}
		}
	}
	return nil
}

// Weekday converts the slot's day to a time.Weekday.
func (s Slot) Weekday() time.Weekday {
	return time.Weekday(s.DayOfWeek)
}

// mustMinutes converts a validated HH:MM string to minutes since midnight.
func mustMinutes(hhmm string) int {
	var h, m int
	_, _ = fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}
