// Package notify delivers messages back to chat users. The bot platform
// receives them through an outbound webhook; deployments without a webhook
// fall back to logging so scheduled jobs keep running.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tusbot/tusbot/internal/resilience"
)

// Notifier sends a text message to a single user.
type Notifier interface {
	Send(ctx context.Context, userID, text string) error
}

// message is the webhook payload.
type message struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// WebhookNotifier posts messages to the bot platform's delivery endpoint.
type WebhookNotifier struct {
	url    string
	client *resilience.Client
	logger zerolog.Logger
}

// NewWebhookNotifier creates a notifier that posts to the given URL.
func NewWebhookNotifier(url string, client *resilience.Client, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: client, logger: logger}
}

// Send posts the message. Delivery failures are returned to the caller but
// must never bring down the scheduler.
func (n *WebhookNotifier) Send(ctx context.Context, userID, text string) error {
	body, err := json.Marshal(message{UserID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("delivering notification: unexpected status %d", resp.StatusCode)
	}

	n.logger.Debug().Str("user_id", userID).Msg("notification delivered")
	return nil
}

// LogNotifier writes messages to the log instead of delivering them. Used
// when no webhook is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message and reports success.
func (n *LogNotifier) Send(_ context.Context, userID, text string) error {
	n.logger.Info().Str("user_id", userID).Str("text", text).Msg("notification (log only)")
	return nil
}
