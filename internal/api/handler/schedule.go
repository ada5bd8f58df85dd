package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tusbot/tusbot/internal/api/response"
	"github.com/tusbot/tusbot/internal/api/token"
	"github.com/tusbot/tusbot/internal/schedule"
)

// JobRebuilder re-creates a user's recurring jobs after their slots change.
type JobRebuilder interface {
	RebuildForUser(ctx context.Context, userID string) error
}

// ScheduleHandler serves the schedule dashboard: reading and replacing a
// user's weekly slots, authenticated by a short-lived panel token.
type ScheduleHandler struct {
	schedules *schedule.Service
	jobs      JobRebuilder
	tokens    *token.Issuer
}

// NewScheduleHandler creates a ScheduleHandler.
func NewScheduleHandler(schedules *schedule.Service, jobs JobRebuilder, tokens *token.Issuer) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, jobs: jobs, tokens: tokens}
}

func (h *ScheduleHandler) sessionFromToken(w http.ResponseWriter, r *http.Request) (token.Session, bool) {
	session, err := h.tokens.Validate(r.URL.Query().Get("token"))
	if err != nil {
		response.Unauthorized(w, r, "invalid or expired panel token")
		return token.Session{}, false
	}
	return session, true
}

type scheduleResponse struct {
	Schedules []schedule.Slot `json:"schedules"`
	ExpiresAt string          `json:"expires_at"`
}

// Get handles GET /api/schedule?token=... and returns the user's slots
// along with the token expiry so the dashboard can warn before the link
// goes stale.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromToken(w, r)
	if !ok {
		return
	}

	slots, err := h.schedules.Get(r.Context(), session.UserID)
	if err != nil {
		response.InternalError(w, r, "could not load schedule")
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}

	response.JSON(w, r, http.StatusOK, scheduleResponse{
		Schedules: slots,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type replaceRequest struct {
	Slots []schedule.Slot `json:"slots"`
}

type replaceResponse struct {
	Success bool `json:"success"`
}

// Replace handles POST /api/schedule?token=... It validates and stores the
// complete slot set, then rebuilds the user's recurring jobs so the running
// state matches what was just saved.
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFromToken(w, r)
	if !ok {
		return
	}

	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.schedules.Replace(r.Context(), session.UserID, req.Slots); err != nil {
		if errors.Is(err, schedule.ErrInvalidSlot) {
			response.BadRequest(w, r, err.Error())
			return
		}
		response.InternalError(w, r, "could not save schedule")
		return
	}

	if err := h.jobs.RebuildForUser(r.Context(), session.UserID); err != nil {
		response.InternalError(w, r, "schedule saved but jobs could not be rebuilt")
		return
	}

	response.JSON(w, r, http.StatusOK, replaceResponse{Success: true})
}
