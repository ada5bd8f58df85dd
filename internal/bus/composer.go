package bus

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// AnswerKind states which data source produced a payload.
type AnswerKind string

const (
	// KindRealTime means live fleet estimates answered the query.
	KindRealTime AnswerKind = "realtime"

	// KindSchedule means the scheduled timetable answered as a fallback.
	KindSchedule AnswerKind = "schedule"

	// KindNoData means neither source knows the stop and line.
	KindNoData AnswerKind = "no_data"
)

// RefreshAction is the value carried by a payload's refresh affordance. The
// chat surface posts it back verbatim to recompute the same answer, which is
// idempotent and safe to repeat.
type RefreshAction struct {
	StopID  string `json:"stop_id"`
	RouteID string `json:"route_id"`
}

// Payload is a fully rendered answer for the chat surface.
type Payload struct {
	// Kind states which source answered.
	Kind AnswerKind `json:"kind"`

	// Title heads the message.
	Title string `json:"title"`

	// Text is the rendered body.
	Text string `json:"text"`

	// Refresh re-invokes the same composition.
	Refresh RefreshAction `json:"refresh"`
}

// Composer decides source precedence and renders answers. Live estimates win;
// the timetable is an explicitly disclaimed fallback.
type Composer struct {
	service *Service
	logger  zerolog.Logger
}

// NewComposer creates a composer over the given bus service.
func NewComposer(service *Service, logger zerolog.Logger) *Composer {
	return &Composer{service: service, logger: logger}
}

// Answer composes the user-facing answer for a stop and line. The realtime
// source is always consulted first; the timetable only when no bus is live.
// Feed failures degrade to the "no information" payload and are never
// surfaced as errors to the user.
func (c *Composer) Answer(ctx context.Context, stopID, routeID string) Payload {
	refresh := RefreshAction{StopID: stopID, RouteID: routeID}

	realTime, err := c.service.RealTime(ctx, stopID, routeID)
	if err == nil && realTime != nil && !realTime.Empty {
		return Payload{
			Kind:    KindRealTime,
			Title:   fmt.Sprintf("🚌 TIEMPO REAL - Línea %s - Parada %s", routeID, stopID),
			Text:    renderRealTime(realTime),
			Refresh: refresh,
		}
	}

	schedule, err := c.service.Schedule(ctx, stopID, routeID)
	if err != nil || schedule == nil {
		// Unknown pair and transient fetch failure read the same to the
		// user; the next refresh retries.
		return Payload{
			Kind:    KindNoData,
			Title:   "Sin información",
			Text:    fmt.Sprintf("❌ No encontré información para la parada %s en la línea %s. Verifica los datos.", stopID, routeID),
			Refresh: refresh,
		}
	}

	return Payload{
		Kind:    KindSchedule,
		Title:   fmt.Sprintf("🚌 HORARIOS PROGRAMADOS - Línea %s - Parada %s", routeID, stopID),
		Text:    renderSchedule(schedule) + "\n\n⚠️ _No hay buses activos actualmente. Mostrando horarios programados._",
		Refresh: refresh,
	}
}

// renderRealTime renders the live answer body. Arrival tiers: under a minute,
// exactly one minute (singular), and plural minutes.
func renderRealTime(answer *RealTimeAnswer) string {
	if answer.Empty {
		return "🚌 No hay buses activos en este momento para esta parada y línea.\n\n⏰ _Consulta en tiempo real de TUS Santander_"
	}

	lines := make([]string, 0, len(answer.Buses))
	for _, b := range answer.Buses {
		var header string
		switch {
		case b.EtaMinutes < 1:
			header = "🚨 *LLEGANDO AHORA*"
		case b.EtaMinutes == 1:
			header = "⚠️ *1 MINUTO*"
		default:
			header = fmt.Sprintf("🕒 *%d minutos*", b.EtaMinutes)
		}
		distanceKm := float64(b.DistanceMeters) / 1000
		lines = append(lines, fmt.Sprintf("%s 🚍 → %s\n   📍 Distancia: %.1f km | 🆔 Bus ID: %s",
			header, b.Destination, distanceKm, b.BusID))
	}

	return strings.Join(lines, "\n\n") +
		fmt.Sprintf("\n\n🕒 _Hora actual: %s | 🔴 Estimaciones ajustadas (-3 min) - TUS Santander_", answer.AsOf)
}

// renderSchedule renders the timetable answer body.
func renderSchedule(answer *ScheduleAnswer) string {
	if answer.Empty {
		return "⏰ No hay más horarios para hoy. Consulta mañana."
	}

	lines := make([]string, 0, len(answer.Departures))
	for _, d := range answer.Departures {
		unit := "minutos"
		if d.MinutesFromNow == 1 {
			unit = "minuto"
		}
		lines = append(lines, fmt.Sprintf("🕐 %s (en %d %s) 🚍 → %s", d.Time, d.MinutesFromNow, unit, d.Destination))
	}

	return strings.Join(lines, "\n") +
		fmt.Sprintf("\n\n🕒 _Hora actual: %s | 📅 Horarios programados de TUS Santander_", answer.AsOf)
}
