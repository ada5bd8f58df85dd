package santander_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusbot/tusbot/internal/bus"
	"github.com/tusbot/tusbot/internal/bus/santander"
)

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestScheduledStopTimes(t *testing.T) {
	// The portal mixes strings and numbers for the same fields.
	server := serveJSON(t, `{"resources": [
		{"ayto:linea": "1", "ayto:idParada": 338, "ayto:hora": "31140", "ayto:nombreParada": "Centro", "ayto:numViaje": "12", "ayto:servicio": "A"},
		{"ayto:linea": 2, "ayto:idParada": "500", "ayto:hora": 45000, "ayto:nombreParada": "Hospital"},
		{"ayto:idParada": "7", "ayto:hora": "100"},
		{"ayto:linea": "1", "ayto:idParada": "338", "ayto:hora": "no-es-hora"}
	]}`)
	defer server.Close()

	client := santander.NewClient(santander.ClientConfig{
		ScheduleURL: server.URL,
		Logger:      zerolog.Nop(),
	})

	records, err := client.ScheduledStopTimes(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, bus.ScheduledStopTime{
		Line: "1", StopID: "338", ClockSeconds: 31140,
		StopName: "Centro", Trip: "12", Service: "A",
	}, records[0])
	assert.Equal(t, "2", records[1].Line)
	assert.Equal(t, 45000, records[1].ClockSeconds)
}

func TestLiveEstimates(t *testing.T) {
	server := serveJSON(t, `{"resources": [
		{"ayto:etiqLinea": "1", "ayto:paradaId": "338", "dc:identifier": "1234",
		 "ayto:tiempo1": "300", "ayto:destino1": "Centro", "ayto:distancia1": "150",
		 "ayto:tiempo2": 540, "ayto:destino2": "Valdecilla", "ayto:distancia2": 800,
		 "ayto:fechActual": "2025-03-10T14:30:00"},
		{"ayto:etiqLinea": 2, "ayto:paradaId": 500, "dc:identifier": "5678",
		 "ayto:tiempo1": "", "ayto:distancia1": "abc"},
		{"ayto:paradaId": "9"}
	]}`)
	defer server.Close()

	client := santander.NewClient(santander.ClientConfig{
		EstimatesURL: server.URL,
		Logger:       zerolog.Nop(),
	})

	records, err := client.LiveEstimates(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, bus.LiveEstimate{
		Line: "1", StopID: "338", BusID: "1234", ReportedAt: "2025-03-10T14:30:00",
		Destination1: "Centro", EtaSeconds1: 300, DistanceMeters1: 150,
		Destination2: "Valdecilla", EtaSeconds2: 540, DistanceMeters2: 800,
	}, records[0])

	// Blank and malformed numerics normalize to zero instead of killing
	// the record.
	assert.Equal(t, 0, records[1].EtaSeconds1)
	assert.Equal(t, 0, records[1].DistanceMeters1)
}

func TestFetchErrorsWrapFeedUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := santander.NewClient(santander.ClientConfig{
		ScheduleURL:  server.URL,
		EstimatesURL: server.URL,
		Logger:       zerolog.Nop(),
	})

	_, err := client.ScheduledStopTimes(context.Background())
	assert.ErrorIs(t, err, bus.ErrFeedUnavailable)

	_, err = client.LiveEstimates(context.Background())
	assert.ErrorIs(t, err, bus.ErrFeedUnavailable)
}

func TestMalformedBodyWrapsFeedUnavailable(t *testing.T) {
	server := serveJSON(t, `{"resources": [`)
	defer server.Close()

	client := santander.NewClient(santander.ClientConfig{
		ScheduleURL: server.URL,
		Logger:      zerolog.Nop(),
	})

	_, err := client.ScheduledStopTimes(context.Background())
	assert.ErrorIs(t, err, bus.ErrFeedUnavailable)
}
