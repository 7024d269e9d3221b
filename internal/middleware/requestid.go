package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/adzspec-asad/ai-studio-api/internal/logger"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLen caps caller-supplied IDs so a hostile client cannot
// inflate every log line through the header.
const maxRequestIDLen = 64

// RequestID is HTTP middleware that trusts an incoming X-Request-ID when
// present (truncated to a sane length) and mints a UUID otherwise. The ID
// is stored in the request context and echoed on the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if len(id) > maxRequestIDLen {
			id = id[:maxRequestIDLen]
		}
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
