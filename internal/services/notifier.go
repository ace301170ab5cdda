package services

import (
	"context"
	"fmt"
	"time"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	"github.com/igorsal/webhook-relay/internal/models"
)

type NotifierService struct {
	relay   interfaces.Relay
	logger  interfaces.Logger
	metrics interfaces.MetricsCollector
}

// NewNotifierService creates a new notifier service
func NewNotifierService(relay interfaces.Relay, logger interfaces.Logger, metrics interfaces.MetricsCollector) *NotifierService {
	return &NotifierService{
		relay:   relay,
		logger:  logger,
		metrics: metrics,
	}
}

// Notify classifies the payload and relays the rendered message. Ignored
// payloads return EventKindIgnored and a nil error without touching the relay.
func (s *NotifierService) Notify(ctx context.Context, payload *models.WebhookPayload) (models.EventKind, error) {
	startTime := time.Now()
	kind := Classify(payload)
	labels := map[string]string{
		"kind":   string(kind),
		"action": payload.GetAction(),
	}

	if kind == models.EventKindIgnored {
		s.logger.Debug("Ignoring webhook payload",
			"action", payload.GetAction(),
			"repository", payload.GetRepositoryName(),
		)
		s.record(labels, "ignored")
		return kind, nil
	}

	if err := Validate(kind, payload); err != nil {
		s.logger.Warn("Rejecting incomplete webhook payload",
			"kind", kind,
			"repository", payload.GetRepositoryName(),
			"error", err.Error(),
		)
		s.record(labels, "invalid")
		return kind, err
	}

	message, err := Format(kind, payload)
	if err != nil {
		s.record(labels, "error")
		return kind, err
	}

	if err := s.relay.SendMessage(ctx, message); err != nil {
		s.logger.Error("Failed to relay notification", err,
			"kind", kind,
			"repository", payload.GetRepositoryName(),
		)
		s.record(labels, "error")
		return kind, fmt.Errorf("relay %s notification: %w", kind, err)
	}

	duration := time.Since(startTime).Seconds()
	s.metrics.RecordDuration("webhook_processing_duration_seconds", duration, map[string]string{"kind": string(kind)})
	s.record(labels, "relayed")

	s.logger.Info("Notification relayed",
		"kind", kind,
		"action", payload.GetAction(),
		"repository", payload.GetRepositoryName(),
		"duration_ms", duration*1000,
	)

	return kind, nil
}

func (s *NotifierService) record(labels map[string]string, status string) {
	s.metrics.IncrementCounter("webhook_events_total", map[string]string{
		"kind":   labels["kind"],
		"action": labels["action"],
		"status": status,
	})
}
