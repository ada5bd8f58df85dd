package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tusbot/tusbot/internal/api/response"
	"github.com/tusbot/tusbot/internal/api/token"
)

// PanelHandler issues dashboard tokens to the bot platform.
type PanelHandler struct {
	tokens *token.Issuer
	ttl    time.Duration
}

// NewPanelHandler creates a PanelHandler.
func NewPanelHandler(tokens *token.Issuer, ttl time.Duration) *PanelHandler {
	if ttl == 0 {
		ttl = token.DefaultTTL
	}
	return &PanelHandler{tokens: tokens, ttl: ttl}
}

type panelTokenRequest struct {
	UserID string `json:"user_id"`
}

type panelTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Issue handles POST /internal/panel-token. The bot embeds the returned
// token in the dashboard link it sends the user.
func (h *PanelHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req panelTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.UserID == "" {
		response.BadRequest(w, r, "user_id is required")
		return
	}

	signed, err := h.tokens.Issue(req.UserID)
	if err != nil {
		response.InternalError(w, r, "could not issue panel token")
		return
	}

	response.JSON(w, r, http.StatusOK, panelTokenResponse{
		Token:     signed,
		ExpiresIn: int(h.ttl.Seconds()),
	})
}
