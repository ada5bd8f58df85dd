package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/bus"
)

// RefreshJob prewarms the bus service caches for configured stop/line pairs.
type RefreshJob struct {
	config     RefreshConfig
	logger     zerolog.Logger
	busService *bus.Service

	metrics *RefreshMetrics
}

// RefreshMetrics tracks prewarm job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns         int64
	SuccessfulPairs   int64
	FailedPairs       int64
	ScheduleRefreshes int64
	RealTimeRefreshes int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config     RefreshConfig
	Logger     zerolog.Logger
	BusService *bus.Service
}

// NewRefreshJob creates a prewarm job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Pairs) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency == 0 {
		config.Concurrency = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:     config,
		logger:     cfg.Logger,
		busService: cfg.BusService,
		metrics:    &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one prewarm run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalPairs int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records a failed pair.
type RefreshError struct {
	Source string
	Pair   StopRoute
	Error  string
}

// Run executes the prewarm job for all configured pairs.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:  startTime,
		TotalPairs: j.config.TotalPairs(),
	}

	j.logger.Info().
		Int("total_pairs", result.TotalPairs).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache prewarm job")

	pairsChan := make(chan StopRoute, len(j.config.Pairs))
	resultsChan := make(chan pairResult, len(j.config.Pairs))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, pairsChan, resultsChan)
		}()
	}

	for _, p := range j.config.Pairs {
		pairsChan <- p
	}
	close(pairsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache prewarm job completed")

	return result
}

type pairResult struct {
	pair    StopRoute
	success bool
	errors  []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, pairs <-chan StopRoute, results chan<- pairResult) {
	for pair := range pairs {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshPair(ctx, pair)
		}
	}
}

func (j *RefreshJob) refreshPair(ctx context.Context, pair StopRoute) pairResult {
	result := pairResult{pair: pair, success: true}

	pairCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.RefreshSchedule {
		if _, err := j.busService.Schedule(pairCtx, pair.StopID, pair.RouteID); err != nil {
			result.errors = append(result.errors, RefreshError{
				Source: "schedule",
				Pair:   pair,
				Error:  err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.ScheduleRefreshes, 1)
		}
	}

	if j.config.RefreshRealTime {
		if _, err := j.busService.RealTime(pairCtx, pair.StopID, pair.RouteID); err != nil {
			result.errors = append(result.errors, RefreshError{
				Source: "realtime",
				Pair:   pair,
				Error:  err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.RealTimeRefreshes, 1)
		}
	}

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPairs += int64(result.Successful)
	j.metrics.FailedPairs += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:         j.metrics.TotalRuns,
		SuccessfulPairs:   j.metrics.SuccessfulPairs,
		FailedPairs:       j.metrics.FailedPairs,
		ScheduleRefreshes: atomic.LoadInt64(&j.metrics.ScheduleRefreshes),
		RealTimeRefreshes: atomic.LoadInt64(&j.metrics.RealTimeRefreshes),
		LastRunAt:         j.metrics.LastRunAt,
		LastRunDuration:   j.metrics.LastRunDuration,
		TotalDuration:     j.metrics.TotalDuration,
	}
}
