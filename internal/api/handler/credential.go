package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tusbot/tusbot/internal/api/response"
	"github.com/tusbot/tusbot/internal/credential"
)

// CredentialHandler stores and removes timeclock credentials on behalf of
// the bot's onboarding flow.
type CredentialHandler struct {
	credentials *credential.Service
}

// NewCredentialHandler creates a CredentialHandler.
func NewCredentialHandler(credentials *credential.Service) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

type saveCredentialRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// Save handles POST /internal/credentials. The secret is encrypted before
// it reaches storage.
func (h *CredentialHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.UserID == "" || req.Username == "" || req.Secret == "" {
		response.BadRequest(w, r, "user_id, username and secret are required")
		return
	}

	if err := h.credentials.Save(r.Context(), req.UserID, req.Username, req.Secret); err != nil {
		response.InternalError(w, r, "could not save credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type deleteCredentialRequest struct {
	UserID string `json:"user_id"`
}

// Delete handles DELETE /internal/credentials.
func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.UserID == "" {
		response.BadRequest(w, r, "user_id is required")
		return
	}

	if err := h.credentials.Delete(r.Context(), req.UserID); err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			response.NotFound(w, r, "no credential stored for user")
			return
		}
		response.InternalError(w, r, "could not delete credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
