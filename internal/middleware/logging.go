package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/google/uuid"

	"github.com/igorsal/webhook-relay/internal/interfaces"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDMiddleware tags each request with an ID, reusing GitHub's delivery
// GUID when present so logs line up with the webhook's delivery history.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := github.DeliveryID(r)
		if id == "" {
			id = r.Header.Get(RequestIDHeader)
		}
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the ID set by RequestIDMiddleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			fields := []interface{}{
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			}
			if event := github.WebHookType(r); event != "" {
				fields = append(fields, "github_event", event)
			}

			// fields is shared by both events; each append copies
			logger.Debug("Incoming request", append(fields[:len(fields):len(fields)], "user_agent", r.UserAgent())...)

			next.ServeHTTP(wrapped, r)

			logger.Info("Request completed", append(fields[:len(fields):len(fields)],
				"status_code", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)...)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
