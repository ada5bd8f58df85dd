package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusbot/tusbot/internal/clock"
	"github.com/tusbot/tusbot/internal/credential"
	"github.com/tusbot/tusbot/internal/schedule"
	"github.com/tusbot/tusbot/internal/timeclock"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeTimeclock struct {
	mu      sync.Mutex
	starts  int
	stops   int
	err     error
	outcome timeclock.Outcome
}

func (f *fakeTimeclock) Start(context.Context, string, string) (timeclock.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.outcome, f.err
}

func (f *fakeTimeclock) Stop(context.Context, string, string) (timeclock.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.outcome, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func newTestScheduler(t *testing.T, tc timeclock.Client, n Notifier) (*Scheduler, schedule.Repository, *credential.Service) {
	t.Helper()

	ts, err := clock.New(fixedClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}) // a Monday
	require.NoError(t, err)

	cipher, err := credential.NewCipher("test-passphrase-for-scheduler")
	require.NoError(t, err)
	creds := credential.NewService(credential.NewMemoryRepository(), cipher, zerolog.Nop())

	repo := schedule.NewMemoryRepository()
	s := New(Config{FireTimeout: 5 * time.Second}, repo, creds, tc, n, ts, zerolog.Nop())
	t.Cleanup(s.CancelAll)
	return s, repo, creds
}

func TestRebuildForUserCreatesOneJobPerSlotEdge(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: true},
	}))

	require.NoError(t, s.RebuildForUser(ctx, "U1"))

	jobs := s.ActiveJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobKey{UserID: "U1", Action: ActionStart, Weekday: time.Monday, TimeOfDay: "09:00"}, jobs[0])
	assert.Equal(t, JobKey{UserID: "U1", Action: ActionStop, Weekday: time.Monday, TimeOfDay: "18:00"}, jobs[1])
}

func TestRebuildForUserIsIdempotent(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: true},
	}))

	require.NoError(t, s.RebuildForUser(ctx, "U1"))
	first := s.ActiveJobs()

	require.NoError(t, s.RebuildForUser(ctx, "U1"))
	require.NoError(t, s.RebuildForUser(ctx, "U1"))

	assert.Equal(t, first, s.ActiveJobs())
	assert.Len(t, s.ActiveJobs(), 2)
}

func TestRebuildForUserSkipsInactiveSlots(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: false},
		{UserID: "U1", DayOfWeek: 3, StartTime: "10:00", Active: true},
	}))

	require.NoError(t, s.RebuildForUser(ctx, "U1"))

	jobs := s.ActiveJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, ActionStart, jobs[0].Action)
	assert.Equal(t, time.Wednesday, jobs[0].Weekday)
}

func TestRebuildForUserDropsRemovedSlots(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: true},
		{UserID: "U1", DayOfWeek: 2, StartTime: "09:00", EndTime: "18:00", Active: true},
	}))
	require.NoError(t, s.RebuildForUser(ctx, "U1"))
	require.Len(t, s.ActiveJobs(), 4)

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: true},
	}))
	require.NoError(t, s.RebuildForUser(ctx, "U1"))

	jobs := s.ActiveJobs()
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, time.Monday, j.Weekday)
	}
}

func TestCancelForUserLeavesOtherUsersRunning(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", Active: true},
	}))
	require.NoError(t, repo.ReplaceAllForUser(ctx, "U2", []schedule.Slot{
		{UserID: "U2", DayOfWeek: 2, StartTime: "10:00", Active: true},
	}))
	require.NoError(t, s.RebuildForUser(ctx, "U1"))
	require.NoError(t, s.RebuildForUser(ctx, "U2"))

	s.CancelForUser("U1")

	jobs := s.ActiveJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "U2", jobs[0].UserID)
}

func TestInitAllSchedulesEveryActiveSlot(t *testing.T) {
	s, repo, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})
	ctx := t.Context()

	require.NoError(t, repo.ReplaceAllForUser(ctx, "U1", []schedule.Slot{
		{UserID: "U1", DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", Active: true},
	}))
	require.NoError(t, repo.ReplaceAllForUser(ctx, "U2", []schedule.Slot{
		{UserID: "U2", DayOfWeek: 5, StartTime: "08:30", Active: true},
		{UserID: "U2", DayOfWeek: 5, EndTime: "14:00", Active: false},
	}))

	require.NoError(t, s.InitAll(ctx))
	assert.Len(t, s.ActiveJobs(), 3)
}

func TestNextRunSameWeek(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})

	// Fixed now is Monday 2026-03-02 09:00 Europe/Madrid (08:00 UTC).
	next := s.nextRun(JobKey{UserID: "U1", Action: ActionStart, Weekday: time.Wednesday, TimeOfDay: "09:30"})

	assert.Equal(t, time.Wednesday, next.Weekday())
	assert.Equal(t, "2026-03-04 09:30", next.Format("2006-01-02 15:04"))
}

func TestNextRunRollsToNextWeekWhenPassed(t *testing.T) {
	s, _, _ := newTestScheduler(t, &fakeTimeclock{}, &fakeNotifier{})

	// Monday 08:00 slot on a Monday at 09:00 local has already passed.
	next := s.nextRun(JobKey{UserID: "U1", Action: ActionStart, Weekday: time.Monday, TimeOfDay: "08:00"})

	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, "2026-03-09 08:00", next.Format("2006-01-02 15:04"))
}

func TestFireSkipsUsersWithoutCredentials(t *testing.T) {
	tc := &fakeTimeclock{}
	n := &fakeNotifier{}
	s, _, _ := newTestScheduler(t, tc, n)

	s.fire(JobKey{UserID: "nobody", Action: ActionStart, Weekday: time.Monday, TimeOfDay: "09:00"})

	assert.Zero(t, tc.starts)
	assert.Empty(t, n.all())
}

func TestFireNotifiesOutcome(t *testing.T) {
	tc := &fakeTimeclock{outcome: timeclock.Outcome{Success: true, Message: "Timer started successfully."}}
	n := &fakeNotifier{}
	s, _, creds := newTestScheduler(t, tc, n)

	require.NoError(t, creds.Save(t.Context(), "U1", "maria", "secret"))

	s.fire(JobKey{UserID: "U1", Action: ActionStart, Weekday: time.Monday, TimeOfDay: "09:00"})

	assert.Equal(t, 1, tc.starts)
	require.Len(t, n.all(), 1)
	assert.Equal(t, "🤖 Ejecución Kronos: Timer started successfully.", n.all()[0])
}

func TestFireNotifiesAutomationFailure(t *testing.T) {
	tc := &fakeTimeclock{err: errors.New("login rejected")}
	n := &fakeNotifier{}
	s, _, creds := newTestScheduler(t, tc, n)

	require.NoError(t, creds.Save(t.Context(), "U1", "maria", "secret"))

	s.fire(JobKey{UserID: "U1", Action: ActionStop, Weekday: time.Monday, TimeOfDay: "18:00"})

	assert.Equal(t, 1, tc.stops)
	require.Len(t, n.all(), 1)
	assert.Contains(t, n.all()[0], "❌ Error ejecutando Kronos:")
	assert.Contains(t, n.all()[0], "login rejected")
}
