package server

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/google/uuid"
)

// withRequestID guarantees every request carries a correlation ID in the
// configured header, minting one when the caller did not supply it. The ID is
// echoed on the response so clients can quote it in support requests.
func withRequestID(header string, logger *slog.Logger, next http.Handler) http.Handler {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "X-Request-ID"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(header))
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(header, requestID)
		}
		w.Header().Set(header, requestID)

		logger.Debug("request received",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID)
		next.ServeHTTP(w, r)
	})
}
