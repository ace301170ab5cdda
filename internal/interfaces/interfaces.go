package interfaces

import (
	"context"

	"github.com/igorsal/webhook-relay/internal/models"
)

// Relay delivers a rendered notification to the chat platform
type Relay interface {
	SendMessage(ctx context.Context, text string) error
}

// Notifier turns a verified webhook payload into a relayed notification
type Notifier interface {
	Notify(ctx context.Context, payload *models.WebhookPayload) (models.EventKind, error)
}

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	RecordDuration(name string, duration float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

// CircuitBreaker defines the interface for circuit breaker pattern
type CircuitBreaker interface {
	Execute(req func() (interface{}, error)) (interface{}, error)
	Name() string
	State() string
}
