package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/tusbot/tusbot/internal/api/models"
)

// InternalKeyHeader carries the shared secret the bot platform presents on
// internal endpoints.
const InternalKeyHeader = "X-Internal-Key"

// InternalKey returns a middleware that rejects requests whose shared secret
// does not match. The comparison is constant time.
func InternalKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(InternalKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				resp := &models.ErrorResponse{
					Code:      models.CodeUnauthorized,
					Message:   "missing or invalid internal key",
					RequestID: GetRequestID(r.Context()),
				}
				resp.Write(w, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
