package handlers

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/igorsal/webhook-relay/internal/interfaces"
)

type HealthHandler struct {
	breaker interfaces.CircuitBreaker
	logger  interfaces.Logger
	metrics interfaces.MetricsCollector
}

type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Version   string       `json:"version"`
	Relay     *RelayHealth `json:"relay,omitempty"`
}

// RelayHealth reports the outbound circuit breaker. An open breaker does not
// fail the health check; webhooks are still verified and answered.
type RelayHealth struct {
	CircuitBreaker string `json:"circuit_breaker"`
	State          string `json:"state"`
}

// NewHealthHandler creates a new health handler. breaker may be nil.
func NewHealthHandler(breaker interfaces.CircuitBreaker, logger interfaces.Logger, metrics interfaces.MetricsCollector) *HealthHandler {
	return &HealthHandler{
		breaker: breaker,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle processes health check requests
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Invalid method for health endpoint", "method", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   getVersion(),
	}
	if h.breaker != nil {
		response.Relay = &RelayHealth{
			CircuitBreaker: h.breaker.Name(),
			State:          h.breaker.State(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", err)
		return
	}

	h.logger.Debug("Health check completed successfully")
}

// getVersion returns build version information
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7] // Short commit hash
				}
				return setting.Value
			}
		}

		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	return "dev"
}
