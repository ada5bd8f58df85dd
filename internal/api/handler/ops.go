package handler

import (
	"net/http"
	"time"

	"github.com/tusbot/tusbot/internal/api/models"
	"github.com/tusbot/tusbot/internal/api/response"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	ready     func() error
}

// NewOpsHandler creates an OpsHandler. The ready func reports whether the
// backing store is reachable; nil means always ready.
func NewOpsHandler(version, buildTime string, ready func() error) *OpsHandler {
	return &OpsHandler{version: version, buildTime: buildTime, ready: ready}
}

// HealthCheck handles GET /healthz.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /readyz.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
				Status:  models.HealthStatusDegraded,
				Time:    time.Now().UTC(),
				Details: map[string]string{"error": err.Error()},
			})
			return
		}
	}
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
	})
}
