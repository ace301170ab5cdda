package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

const requestIDHeader = "X-Request-ID"

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"trace_id,omitempty"`
}

type ErrorDetail struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// WriteError writes err as a JSON ErrorResponse. AppErrors keep their status
// and type; anything else becomes an opaque 500.
func WriteError(w http.ResponseWriter, err error, traceID string) int {
	statusCode := http.StatusInternalServerError
	errorResp := ErrorResponse{
		Error: ErrorDetail{
			Type:    string(pkgerrors.ErrorTypeInternal),
			Message: "Internal server error",
		},
		TraceID: traceID,
	}

	if appErr, ok := pkgerrors.AsAppError(err); ok {
		statusCode = appErr.StatusCode
		errorResp.Error = ErrorDetail{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Code:    appErr.Code,
			Context: appErr.Context,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResp)

	return statusCode
}

// PanicRecoveryMiddleware recovers from panics and converts them to errors
func PanicRecoveryMiddleware(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovery := recover(); recovery != nil {
					if recovery == http.ErrAbortHandler {
						panic(recovery)
					}

					traceID := w.Header().Get(requestIDHeader)
					logger.Error("Panic recovered",
						pkgerrors.NewInternalError("panic recovered"),
						"request_id", traceID,
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"panic", recovery,
					)

					WriteError(w, pkgerrors.NewInternalError("Internal server error"), traceID)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
