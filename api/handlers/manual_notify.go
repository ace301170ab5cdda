package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

const (
	MaxBodySize = 64 * 1024

	// Telegram rejects longer message texts
	MaxMessageLength = 4096
)

type ManualNotifyHandler struct {
	relay    interfaces.Relay
	validate *validator.Validate
	logger   interfaces.Logger
	metrics  interfaces.MetricsCollector
}

type ManualNotifyRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

type ManualNotifyResponse struct {
	Status string `json:"status"`
}

func NewManualNotifyHandler(relay interfaces.Relay, logger interfaces.Logger, metrics interfaces.MetricsCollector) *ManualNotifyHandler {
	return &ManualNotifyHandler{
		relay:    relay,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle sends the request text to the configured chat unchanged
func (h *ManualNotifyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, pkgerrors.NewValidationError("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	var req ManualNotifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil {
		h.logger.Error("Failed to decode manual notify request", err)
		h.writeErrorResponse(w, pkgerrors.NewValidationError("invalid request body"), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeErrorResponse(w, validationError(err), http.StatusBadRequest)
		return
	}

	if err := h.relay.SendMessage(r.Context(), req.Text); err != nil {
		h.logger.Error("Failed to relay manual notification", err)
		h.metrics.IncrementCounter("webhook_events_total", map[string]string{"kind": "manual", "action": "", "status": "error"})
		h.writeErrorResponse(w, err, pkgerrors.StatusCode(err))
		return
	}

	h.metrics.IncrementCounter("webhook_events_total", map[string]string{"kind": "manual", "action": "", "status": "relayed"})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(ManualNotifyResponse{Status: "sent"}); err != nil {
		h.logger.Error("Failed to encode response", err)
	}

	h.logger.Info("Manual notification relayed", "length", len(req.Text))
}

func validationError(err error) *pkgerrors.AppError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "required":
			return pkgerrors.NewValidationError("text field is required")
		case "max":
			return pkgerrors.NewValidationError(fmt.Sprintf("text exceeds %d characters", MaxMessageLength))
		}
	}
	return pkgerrors.NewValidationError("invalid request body")
}

func (h *ManualNotifyHandler) writeErrorResponse(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	message := err.Error()
	if appErr, ok := pkgerrors.AsAppError(err); ok {
		message = appErr.Message
	}

	response := map[string]string{
		"error": message,
	}

	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		h.logger.Error("Failed to encode error response", encErr)
	}
}
