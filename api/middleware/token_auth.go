package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

// TokenAuthMiddleware admits requests carrying the static admin token
func TokenAuthMiddleware(token string, logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := extractToken(r)
			if provided == "" {
				writeUnauthorizedResponse(w, "authorization token required", logger)
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logger.Warn("Rejected admin request with invalid token",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				writeUnauthorizedResponse(w, "invalid token", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func writeUnauthorizedResponse(w http.ResponseWriter, message string, logger interfaces.Logger) {
	logger.Debug("Unauthorized admin request", "reason", message)
	WriteError(w, pkgerrors.NewUnauthorizedError(message), w.Header().Get(requestIDHeader))
}
