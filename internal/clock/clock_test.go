package clock_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusbot/tusbot/internal/clock"
)

// fixedClock pins the current instant for deterministic tests.
type fixedClock struct {
	at time.Time
}

func (f fixedClock) Now() time.Time { return f.at }

func TestNow(t *testing.T) {
	loc, err := time.LoadLocation(clock.Zone)
	require.NoError(t, err)

	// 08:39:00 local time
	ts, err := clock.New(fixedClock{at: time.Date(2025, 3, 10, 8, 39, 0, 0, loc)})
	require.NoError(t, err)

	seconds, hhmm := ts.Now()
	assert.Equal(t, 8*3600+39*60, seconds)
	assert.Equal(t, "08:39", hhmm)
}

func TestToClockSeconds(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "morning departure", raw: "31140", want: 31140},
		{name: "midnight", raw: "0", want: 0},
		{name: "last second of day", raw: "86399", want: 86399},
		{name: "surrounding whitespace", raw: " 3600 ", want: 3600},
		{name: "not a number", raw: "ocho", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "negative", raw: "-60", wantErr: true},
		{name: "past end of day", raw: "86400", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := clock.ToClockSeconds(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", clock.Format(0))
	assert.Equal(t, "08:39", clock.Format(31140))
	assert.Equal(t, "23:59", clock.Format(86399))
	// Sub-minute remainder is floored, not rounded.
	assert.Equal(t, "09:00", clock.Format(9*3600+59))
}

func TestFormatToClockSecondsRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 1, 30, 59} {
			hhmm := fmt.Sprintf("%02d:%02d", hour, minute)
			seconds, err := clock.ToClockSeconds(fmt.Sprintf("%d", hour*3600+minute*60))
			require.NoError(t, err)
			assert.Equal(t, hhmm, clock.Format(seconds))
		}
	}
}

func TestMinutesUntil(t *testing.T) {
	now := 10 * 3600 // 10:00:00

	assert.Equal(t, 0, clock.MinutesUntil(now, now))
	assert.Equal(t, 5, clock.MinutesUntil(now+300, now))
	assert.Equal(t, -5, clock.MinutesUntil(now-300, now))
	// 90 seconds rounds to 2 minutes.
	assert.Equal(t, 2, clock.MinutesUntil(now+90, now))
	// 89 seconds rounds to 1 minute.
	assert.Equal(t, 1, clock.MinutesUntil(now+89, now))
}
