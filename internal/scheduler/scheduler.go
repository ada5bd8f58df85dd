// Package scheduler turns weekly time slots into recurring automation jobs.
// Each active slot edge (start time, end time) becomes one weekly job that
// fires in the TUS timezone and drives the timeclock client.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/clock"
	"github.com/tusbot/tusbot/internal/credential"
	"github.com/tusbot/tusbot/internal/schedule"
	"github.com/tusbot/tusbot/internal/timeclock"
)

// Action is the timeclock operation a job performs.
type Action string

// Job actions.
const (
	ActionStart Action = "START"
	ActionStop  Action = "STOP"
)

// JobKey identifies one recurring job. Rebuilding a user's jobs from the same
// slot set produces the same keys, which is what makes rebuilds idempotent.
type JobKey struct {
	UserID    string
	Action    Action
	Weekday   time.Weekday
	TimeOfDay string // HH:MM
}

func (k JobKey) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", k.UserID, k.Action, k.Weekday, k.TimeOfDay)
}

// Config holds configuration for the scheduler.
type Config struct {
	// FireTimeout bounds one automation run. Default: 2m.
	FireTimeout time.Duration
}

// Scheduler owns the registry of running jobs. All mutation goes through
// RebuildForUser so the registry always mirrors the stored slots.
type Scheduler struct {
	repo        schedule.Repository
	credentials *credential.Service
	timeclock   timeclock.Client
	notifier    Notifier
	timeSource  *clock.TimeSource
	logger      zerolog.Logger
	fireTimeout time.Duration

	mu   sync.Mutex
	jobs map[JobKey]*job
	wg   sync.WaitGroup

	// now is injectable for tests; defaults to the time source.
	now func() time.Time
}

// Notifier is the subset of notification delivery the scheduler needs.
type Notifier interface {
	Send(ctx context.Context, userID, text string) error
}

type job struct {
	key  JobKey
	done chan struct{}
}

// New creates a scheduler. No jobs run until InitAll or RebuildForUser.
func New(cfg Config, repo schedule.Repository, credentials *credential.Service,
	tc timeclock.Client, notifier Notifier, ts *clock.TimeSource, logger zerolog.Logger) *Scheduler {
	if cfg.FireTimeout == 0 {
		cfg.FireTimeout = 2 * time.Minute
	}
	return &Scheduler{
		repo:        repo,
		credentials: credentials,
		timeclock:   tc,
		notifier:    notifier,
		timeSource:  ts,
		logger:      logger,
		fireTimeout: cfg.FireTimeout,
		jobs:        make(map[JobKey]*job),
		now:         ts.Instant,
	}
}

// InitAll rebuilds jobs for every user with active slots. Called on startup.
func (s *Scheduler) InitAll(ctx context.Context) error {
	slots, err := s.repo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("loading active slots: %w", err)
	}

	byUser := make(map[string][]schedule.Slot)
	for _, slot := range slots {
		byUser[slot.UserID] = append(byUser[slot.UserID], slot)
	}

	for userID, userSlots := range byUser {
		s.rebuild(userID, userSlots)
	}

	s.logger.Info().Int("users", len(byUser)).Int("jobs", s.jobCount()).Msg("scheduler initialized")
	return nil
}

// RebuildForUser cancels the user's jobs and re-creates them from their
// current stored slots. Safe to call repeatedly; the result depends only on
// the stored state.
func (s *Scheduler) RebuildForUser(ctx context.Context, userID string) error {
	slots, err := s.repo.GetForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading slots for %s: %w", userID, err)
	}

	active := slots[:0:0]
	for _, slot := range slots {
		if slot.Active {
			active = append(active, slot)
		}
	}

	s.rebuild(userID, active)
	return nil
}

func (s *Scheduler) rebuild(userID string, slots []schedule.Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelUserLocked(userID)

	for _, slot := range slots {
		if slot.StartTime != "" {
			s.startJobLocked(JobKey{
				UserID:    userID,
				Action:    ActionStart,
				Weekday:   slot.Weekday(),
				TimeOfDay: slot.StartTime,
			})
		}
		if slot.EndTime != "" {
			s.startJobLocked(JobKey{
				UserID:    userID,
				Action:    ActionStop,
				Weekday:   slot.Weekday(),
				TimeOfDay: slot.EndTime,
			})
		}
	}
}

// CancelForUser stops all of a user's jobs.
func (s *Scheduler) CancelForUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelUserLocked(userID)
}

// CancelAll stops every job and waits for running goroutines to exit.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	for key, j := range s.jobs {
		close(j.done)
		delete(s.jobs, key)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// ActiveJobs returns the keys of all registered jobs, sorted for stable
// inspection.
func (s *Scheduler) ActiveJobs() []JobKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]JobKey, 0, len(s.jobs))
	for key := range s.jobs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (s *Scheduler) jobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) cancelUserLocked(userID string) {
	for key, j := range s.jobs {
		if key.UserID == userID {
			close(j.done)
			delete(s.jobs, key)
		}
	}
}

func (s *Scheduler) startJobLocked(key JobKey) {
	if _, exists := s.jobs[key]; exists {
		return
	}

	j := &job{key: key, done: make(chan struct{})}
	s.jobs[key] = j

	s.wg.Add(1)
	go s.runJob(j)

	s.logger.Info().Str("job", key.String()).Msg("job scheduled")
}

// runJob sleeps until the next weekly occurrence, fires, and re-arms. A
// firing failure never kills the loop.
func (s *Scheduler) runJob(j *job) {
	defer s.wg.Done()

	for {
		delay := time.Until(s.nextRun(j.key))

		select {
		case <-time.After(delay):
			s.fire(j.key)
		case <-j.done:
			return
		}
	}
}

// nextRun returns the next instant matching the key's weekday and time in the
// TUS timezone. A slot time equal to the current instant fires next week.
func (s *Scheduler) nextRun(key JobKey) time.Time {
	now := s.now().In(s.timeSource.Location())

	var h, m int
	_, _ = fmt.Sscanf(key.TimeOfDay, "%d:%d", &h, &m)

	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, s.timeSource.Location())
	days := (int(key.Weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// fire runs one automation pass for the job. Users without a stored
// credential are skipped silently; automation failures notify the user and
// leave the job armed.
func (s *Scheduler) fire(key JobKey) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job", key.String()).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.fireTimeout)
	defer cancel()

	cred, err := s.credentials.Get(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			s.logger.Debug().Str("job", key.String()).Msg("no credential stored, skipping")
			return
		}
		s.logger.Error().Err(err).Str("job", key.String()).Msg("credential lookup failed")
		return
	}

	s.logger.Info().Str("job", key.String()).Msg("job firing")

	var outcome timeclock.Outcome
	switch key.Action {
	case ActionStart:
		outcome, err = s.timeclock.Start(ctx, cred.Username, cred.Secret)
	case ActionStop:
		outcome, err = s.timeclock.Stop(ctx, cred.Username, cred.Secret)
	}

	if err != nil {
		s.logger.Error().Err(err).Str("job", key.String()).Msg("automation failed")
		s.send(ctx, key.UserID, fmt.Sprintf("❌ Error ejecutando Kronos: %v", err))
		return
	}

	s.logger.Info().Str("job", key.String()).Bool("success", outcome.Success).
		Str("message", outcome.Message).Msg("job completed")
	s.send(ctx, key.UserID, "🤖 Ejecución Kronos: "+outcome.Message)
}

func (s *Scheduler) send(ctx context.Context, userID, text string) {
	if err := s.notifier.Send(ctx, userID, text); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("notification delivery failed")
	}
}
