package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tusbot/tusbot/internal/api/middleware"
)

func TestInternalKey_AllowsMatchingKey(t *testing.T) {
	handler := middleware.InternalKey("shared-secret")(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, "/internal/bus", http.NoBody)
	req.Header.Set("X-Internal-Key", "shared-secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalKey_RejectsMissingOrWrongKey(t *testing.T) {
	handler := middleware.InternalKey("shared-secret")(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for _, key := range []string{"", "wrong-secret"} {
		req := httptest.NewRequest(http.MethodPost, "/internal/bus", http.NoBody)
		if key != "" {
			req.Header.Set("X-Internal-Key", key)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthorized")
	}
}
