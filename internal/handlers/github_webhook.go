package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/go-github/v66/github"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	"github.com/igorsal/webhook-relay/internal/middleware"
	"github.com/igorsal/webhook-relay/internal/models"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

type GitHubWebhookHandler struct {
	notifier interfaces.Notifier
	logger   interfaces.Logger
	metrics  interfaces.MetricsCollector
}

// NewGitHubWebhookHandler creates a new GitHub webhook handler
func NewGitHubWebhookHandler(notifier interfaces.Notifier, logger interfaces.Logger, metrics interfaces.MetricsCollector) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle relays a verified GitHub webhook. It expects GitHubWebhookAuth to
// have run first; the body it reads is the one the signature covered.
func (h *GitHubWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"delivery", github.DeliveryID(r),
		"event", github.WebHookType(r),
	)

	var payload models.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error("Failed to decode GitHub payload", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	log.Info("Received GitHub webhook",
		"action", payload.GetAction(),
		"repository", payload.GetRepositoryName(),
	)

	kind, err := h.notifier.Notify(r.Context(), &payload)
	if err != nil {
		if appErr, ok := pkgerrors.AsAppError(err); ok && appErr.Type == pkgerrors.ErrorTypeValidation {
			http.Error(w, "Invalid payload: "+appErr.Message, http.StatusBadRequest)
			return
		}

		log.Error("Failed to relay webhook", err, "kind", kind)
		http.Error(w, "Relay failed", pkgerrors.StatusCode(err))
		return
	}

	w.WriteHeader(http.StatusOK)

	log.Debug("Webhook handled", "kind", kind)
}
