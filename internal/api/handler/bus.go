// Package handler provides the HTTP handlers for the bot backend API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tusbot/tusbot/internal/api/response"
	"github.com/tusbot/tusbot/internal/bus"
)

// BusHandler answers bus-arrival queries for the chat surface.
type BusHandler struct {
	composer *bus.Composer
}

// NewBusHandler creates a BusHandler.
func NewBusHandler(composer *bus.Composer) *BusHandler {
	return &BusHandler{composer: composer}
}

type busQuery struct {
	StopID  string `json:"stop_id"`
	RouteID string `json:"route_id"`
}

// Answer handles POST /internal/bus. The same endpoint serves first queries
// and refresh actions; both carry a stop and a line.
func (h *BusHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var q busQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if q.StopID == "" || q.RouteID == "" {
		response.BadRequest(w, r, "stop_id and route_id are required")
		return
	}

	payload := h.composer.Answer(r.Context(), q.StopID, q.RouteID)
	response.JSON(w, r, http.StatusOK, payload)
}
