// Package santander fetches the TUS bus datasets from the Santander open
// data portal. Records with missing or malformed required fields are dropped
// at this boundary so the reconciliation core only ever sees validated data.
package santander

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/bus"
	"github.com/tusbot/tusbot/internal/clock"
	"github.com/tusbot/tusbot/internal/resilience"
)

const (
	// ProviderName identifies this feed provider.
	ProviderName = "santander-opendata"

	// DefaultScheduleURL is the scheduled-timetable dataset.
	DefaultScheduleURL = "http://datos.santander.es/api/rest/datasets/programacionTUS_horariosLineas.json"

	// DefaultEstimatesURL is the live fleet-estimate dataset.
	DefaultEstimatesURL = "https://datos.santander.es/api/rest/datasets/control_flotas_estimaciones.json"
)

// ClientConfig holds configuration for the open-data client.
type ClientConfig struct {
	// ScheduleURL overrides the timetable dataset URL (optional).
	ScheduleURL string

	// EstimatesURL overrides the estimate dataset URL (optional).
	EstimatesURL string

	// HTTPClient is the outbound client (optional). If nil, a resilient
	// client with defaults is used.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches and validates the two TUS datasets.
type Client struct {
	scheduleURL  string
	estimatesURL string
	httpClient   *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates an open-data client.
func NewClient(cfg ClientConfig) *Client {
	scheduleURL := cfg.ScheduleURL
	if scheduleURL == "" {
		scheduleURL = DefaultScheduleURL
	}
	estimatesURL := cfg.EstimatesURL
	if estimatesURL == "" {
		estimatesURL = DefaultEstimatesURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{Name: ProviderName})
	}

	return &Client{
		scheduleURL:  scheduleURL,
		estimatesURL: estimatesURL,
		httpClient:   httpClient,
		logger:       cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// ScheduledStopTimes fetches the complete scheduled timetable.
func (c *Client) ScheduledStopTimes(ctx context.Context) ([]bus.ScheduledStopTime, error) {
	var envelope feedEnvelope[scheduleRecord]
	if err := c.fetch(ctx, c.scheduleURL, &envelope); err != nil {
		return nil, err
	}

	records := make([]bus.ScheduledStopTime, 0, len(envelope.Resources))
	dropped := 0
	for _, r := range envelope.Resources {
		if r.Line == "" || r.StopID == "" {
			dropped++
			continue
		}
		clockSeconds, err := clock.ToClockSeconds(r.Clock.String())
		if err != nil {
			dropped++
			continue
		}
		records = append(records, bus.ScheduledStopTime{
			Line:         r.Line.String(),
			StopID:       r.StopID.String(),
			ClockSeconds: clockSeconds,
			StopName:     r.StopName.String(),
			Trip:         r.Trip.String(),
			Service:      r.Service.String(),
		})
	}

	if dropped > 0 {
		c.logger.Warn().
			Int("dropped", dropped).
			Int("kept", len(records)).
			Msg("dropped invalid timetable records")
	}
	return records, nil
}

// LiveEstimates fetches the complete live fleet-estimate snapshot.
func (c *Client) LiveEstimates(ctx context.Context) ([]bus.LiveEstimate, error) {
	var envelope feedEnvelope[estimateRecord]
	if err := c.fetch(ctx, c.estimatesURL, &envelope); err != nil {
		return nil, err
	}

	records := make([]bus.LiveEstimate, 0, len(envelope.Resources))
	dropped := 0
	for _, r := range envelope.Resources {
		if r.Line == "" || r.StopID == "" {
			dropped++
			continue
		}
		records = append(records, bus.LiveEstimate{
			Line:            r.Line.String(),
			StopID:          r.StopID.String(),
			BusID:           r.BusID.String(),
			ReportedAt:      r.ReportedAt.String(),
			Destination1:    r.Destination1.String(),
			EtaSeconds1:     r.Eta1.intValue(),
			DistanceMeters1: r.Distance1.intValue(),
			Destination2:    r.Destination2.String(),
			EtaSeconds2:     r.Eta2.intValue(),
			DistanceMeters2: r.Distance2.intValue(),
		})
	}

	if dropped > 0 {
		c.logger.Warn().
			Int("dropped", dropped).
			Int("kept", len(records)).
			Msg("dropped invalid estimate records")
	}
	return records, nil
}

// fetch GETs a dataset URL and decodes the envelope. All failure modes wrap
// bus.ErrFeedUnavailable so the service treats them uniformly.
func (c *Client) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", bus.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: executing request: %w", bus.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", bus.ErrFeedUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", bus.ErrFeedUnavailable, err)
	}
	return nil
}
