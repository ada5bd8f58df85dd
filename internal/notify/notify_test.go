package notify_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusbot/tusbot/internal/notify"
	"github.com/tusbot/tusbot/internal/resilience"
)

func TestWebhookNotifierPostsMessage(t *testing.T) {
	var got struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL,
		resilience.NewClient(resilience.ClientConfig{Name: "test"}), zerolog.Nop())

	err := n.Send(t.Context(), "U123", "hola")
	require.NoError(t, err)
	assert.Equal(t, "U123", got.UserID)
	assert.Equal(t, "hola", got.Text)
}

func TestWebhookNotifierReportsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := notify.NewWebhookNotifier(server.URL,
		resilience.NewClient(resilience.ClientConfig{Name: "test"}), zerolog.Nop())

	err := n.Send(t.Context(), "U123", "hola")
	assert.Error(t, err)
}

func TestLogNotifierAlwaysSucceeds(t *testing.T) {
	n := notify.NewLogNotifier(zerolog.Nop())
	assert.NoError(t, n.Send(t.Context(), "U123", "hola"))
}
