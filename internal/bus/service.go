package bus

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/cache"
	"github.com/tusbot/tusbot/internal/clock"
)

// Default cache TTLs. Live estimates churn quickly, so their cache is much
// shorter than the timetable's.
const (
	DefaultScheduleTTL = 60 * time.Second
	DefaultRealTimeTTL = 10 * time.Second

	// DefaultRealTimeAdjustment compensates the fleet feed's observed
	// overstatement of arrival times. Calibration, not an invariant.
	DefaultRealTimeAdjustment = 180 * time.Second
)

// ServiceConfig holds configuration for the bus service.
type ServiceConfig struct {
	// Provider supplies the raw feeds (required).
	Provider Provider

	// Time converts between instants and clock seconds (required).
	Time *clock.TimeSource

	// Logger for service operations.
	Logger zerolog.Logger

	// ScheduleTTL is the timetable answer cache TTL. Default: 60s.
	ScheduleTTL time.Duration

	// RealTimeTTL is the live answer cache TTL. Default: 10s.
	RealTimeTTL time.Duration

	// RealTimeAdjustment is subtracted from every raw ETA. Default: 180s.
	RealTimeAdjustment time.Duration
}

// Service answers stop+line queries against both feeds, with independent
// write-through caches per data class.
type Service struct {
	provider   Provider
	time       *clock.TimeSource
	logger     zerolog.Logger
	adjustment int // seconds

	scheduleTTL   time.Duration
	realTimeTTL   time.Duration
	scheduleCache *cache.Store[*ScheduleAnswer]
	realTimeCache *cache.Store[*RealTimeAnswer]
}

// NewService creates a bus service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.ScheduleTTL == 0 {
		cfg.ScheduleTTL = DefaultScheduleTTL
	}
	if cfg.RealTimeTTL == 0 {
		cfg.RealTimeTTL = DefaultRealTimeTTL
	}
	if cfg.RealTimeAdjustment == 0 {
		cfg.RealTimeAdjustment = DefaultRealTimeAdjustment
	}

	return &Service{
		provider:      cfg.Provider,
		time:          cfg.Time,
		logger:        cfg.Logger,
		adjustment:    int(cfg.RealTimeAdjustment / time.Second),
		scheduleTTL:   cfg.ScheduleTTL,
		realTimeTTL:   cfg.RealTimeTTL,
		scheduleCache: cache.New[*ScheduleAnswer](),
		realTimeCache: cache.New[*RealTimeAnswer](),
	}
}

// Schedule returns the upcoming scheduled departures for a stop and line.
//
// Returns (nil, nil) when the pair is unknown to the timetable feed and
// (nil, error) when the feed could not be fetched; the caller renders both as
// "no information". An answer with Empty=true means nothing departs later
// today.
func (s *Service) Schedule(ctx context.Context, stopID, routeID string) (*ScheduleAnswer, error) {
	key := stopID + ":" + routeID
	if answer, ok := s.scheduleCache.Get(key); ok {
		s.logger.Debug().Str("key", key).Msg("schedule cache hit")
		return answer, nil
	}

	records, err := s.provider.ScheduledStopTimes(ctx)
	if err != nil {
		s.logger.Error().Err(err).
			Str("stop_id", stopID).
			Str("route_id", routeID).
			Msg("scheduled timetable fetch failed")
		return nil, err
	}

	matched := 0
	nowSeconds, hhmm := s.time.Now()
	departures := make([]ScheduledDeparture, 0, MaxResults)

	for _, r := range records {
		if r.Line != routeID || r.StopID != stopID {
			continue
		}
		matched++
		if r.ClockSeconds <= nowSeconds {
			continue
		}
		departures = append(departures, ScheduledDeparture{
			Time:           clock.Format(r.ClockSeconds),
			ClockSeconds:   r.ClockSeconds,
			Destination:    r.StopName,
			Trip:           r.Trip,
			Service:        r.Service,
			MinutesFromNow: clock.MinutesUntil(r.ClockSeconds, nowSeconds),
		})
	}

	// Unknown (stop, line) pair: distinct from "matched but none upcoming".
	if matched == 0 {
		s.logger.Debug().
			Str("stop_id", stopID).
			Str("route_id", routeID).
			Msg("no timetable records for stop and line")
		return nil, nil
	}

	sortByClockSeconds(departures)
	if len(departures) > MaxResults {
		departures = departures[:MaxResults]
	}

	answer := &ScheduleAnswer{
		Departures: departures,
		AsOf:       hhmm,
		Empty:      len(departures) == 0,
	}
	s.scheduleCache.Set(key, answer, s.scheduleTTL)

	s.logger.Info().
		Str("stop_id", stopID).
		Str("route_id", routeID).
		Int("departures", len(departures)).
		Msg("schedule answer computed")

	return answer, nil
}

// RealTime returns the live arrival estimates for a stop and line.
//
// Returns (nil, error) only on fetch failure. No matching record is the
// well-defined Empty answer, not an error: the fleet feed reports on every
// stop it knows.
func (s *Service) RealTime(ctx context.Context, stopID, routeID string) (*RealTimeAnswer, error) {
	key := stopID + ":" + routeID
	if answer, ok := s.realTimeCache.Get(key); ok {
		s.logger.Debug().Str("key", key).Msg("realtime cache hit")
		return answer, nil
	}

	records, err := s.provider.LiveEstimates(ctx)
	if err != nil {
		s.logger.Error().Err(err).
			Str("stop_id", stopID).
			Str("route_id", routeID).
			Msg("live estimate fetch failed")
		return nil, err
	}

	_, hhmm := s.time.Now()
	buses := make([]LiveBus, 0, MaxResults)

	for _, r := range records {
		if r.Line != routeID || r.StopID != stopID {
			continue
		}
		if leg, ok := s.adjustLeg(r.Destination1, r.EtaSeconds1, r.DistanceMeters1, r); ok {
			buses = append(buses, leg)
		}
		// The second leg only counts when it points somewhere else.
		if r.Destination2 != r.Destination1 {
			if leg, ok := s.adjustLeg(r.Destination2, r.EtaSeconds2, r.DistanceMeters2, r); ok {
				buses = append(buses, leg)
			}
		}
	}

	sortByEta(buses)
	if len(buses) > MaxResults {
		buses = buses[:MaxResults]
	}

	answer := &RealTimeAnswer{
		Buses: buses,
		AsOf:  hhmm,
		Empty: len(buses) == 0,
	}
	s.realTimeCache.Set(key, answer, s.realTimeTTL)

	s.logger.Info().
		Str("stop_id", stopID).
		Str("route_id", routeID).
		Int("buses", len(buses)).
		Msg("realtime answer computed")

	return answer, nil
}

// adjustLeg applies the latency correction to one destination leg. A leg is
// dropped when its raw ETA is not positive or when the adjustment consumes it
// entirely.
func (s *Service) adjustLeg(destination string, rawEta, distance int, r LiveEstimate) (LiveBus, bool) {
	if rawEta <= 0 {
		return LiveBus{}, false
	}
	adjusted := rawEta - s.adjustment
	if adjusted <= 0 {
		return LiveBus{}, false
	}
	return LiveBus{
		Destination:    destination,
		EtaSeconds:     adjusted,
		EtaMinutes:     int(math.Round(float64(adjusted) / 60)),
		DistanceMeters: distance,
		BusID:          r.BusID,
		ReportedAt:     r.ReportedAt,
	}, true
}

// InvalidateCache clears both answer caches.
func (s *Service) InvalidateCache() {
	s.scheduleCache = cache.New[*ScheduleAnswer]()
	s.realTimeCache = cache.New[*RealTimeAnswer]()
}

func sortByClockSeconds(departures []ScheduledDeparture) {
	sort.Slice(departures, func(i, j int) bool {
		return departures[i].ClockSeconds < departures[j].ClockSeconds
	})
}

func sortByEta(buses []LiveBus) {
	sort.Slice(buses, func(i, j int) bool {
		return buses[i].EtaSeconds < buses[j].EtaSeconds
	})
}
