package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/igorsal/webhook-relay/internal/config"
	"github.com/igorsal/webhook-relay/internal/interfaces"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

const serviceName = "telegram"

// Error codes for requests Telegram refused on their merits
const (
	codeInvalidBotToken = "invalid_bot_token"
	codeRequestRejected = "request_rejected"
)

type Client struct {
	httpClient     *resty.Client
	config         config.TelegramConfig
	logger         interfaces.Logger
	circuitBreaker interfaces.CircuitBreaker
	metrics        interfaces.MetricsCollector
}

// NewClient creates a Telegram Bot API client with retry, circuit breaker and metrics
func NewClient(cfg config.TelegramConfig, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetBaseURL(cfg.BaseURL)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telegram-api",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Telegram API circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.SetGauge("circuit_breaker_state", float64(to), map[string]string{"name": name})
		},
	})

	return &Client{
		httpClient:     client,
		config:         cfg,
		logger:         logger,
		circuitBreaker: &circuitBreakerWrapper{cb: cb},
		metrics:        metrics,
	}
}

// circuitBreakerWrapper implements interfaces.CircuitBreaker
type circuitBreakerWrapper struct {
	cb *gobreaker.CircuitBreaker
}

func (w *circuitBreakerWrapper) Execute(req func() (interface{}, error)) (interface{}, error) {
	return w.cb.Execute(req)
}

func (w *circuitBreakerWrapper) Name() string {
	return w.cb.Name()
}

func (w *circuitBreakerWrapper) State() string {
	return w.cb.State().String()
}

// SendMessage posts text to the configured chat with Markdown parsing
func (c *Client) SendMessage(ctx context.Context, text string) error {
	startTime := time.Now()

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.executeSendMessage(ctx, text)
	})

	duration := time.Since(startTime).Seconds()
	c.metrics.RecordDuration("telegram_request_duration_seconds", duration, map[string]string{"operation": "send_message"})

	if err != nil {
		c.metrics.IncrementCounter("telegram_requests_total", map[string]string{"operation": "send_message", "status": "error"})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Error("Telegram API circuit breaker open", err, "state", c.circuitBreaker.State())
			return pkgerrors.NewUnavailableError(serviceName).WithCause(err)
		}
		return err
	}

	c.metrics.IncrementCounter("telegram_requests_total", map[string]string{"operation": "send_message", "status": "success"})

	msg := result.(*Message)
	c.logger.Debug("Telegram message sent",
		"chat_id", c.config.ChatID,
		"message_id", msg.MessageID,
		"duration_ms", duration*1000,
	)
	return nil
}

func (c *Client) executeSendMessage(ctx context.Context, text string) (*Message, error) {
	var result, failure APIResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(SendMessageRequest{
			ChatID:    c.config.ChatID,
			Text:      text,
			ParseMode: ParseModeMarkdown,
		}).
		SetResult(&result).
		SetError(&failure).
		Post(c.sendMessagePath())

	if err != nil {
		return nil, pkgerrors.NewExternalError(serviceName, "request failed").WithCause(c.redact(err))
	}

	if resp.IsError() {
		return nil, classifyFailure(resp.StatusCode(), failure, resp.Body())
	}

	if !result.OK {
		return nil, pkgerrors.NewExternalError(serviceName, "request rejected: "+result.Description).
			WithCode(codeRequestRejected).
			WithContext("error_code", result.ErrorCode)
	}

	msg := &Message{}
	if len(result.Result) > 0 {
		if err := json.Unmarshal(result.Result, msg); err != nil {
			c.logger.Warn("Unexpected sendMessage result", "error", err.Error())
		}
	}
	return msg, nil
}

func (c *Client) sendMessagePath() string {
	return fmt.Sprintf("/bot%s/sendMessage", c.config.BotToken)
}

// redact keeps the bot token, which is part of the request URL, out of error text
func (c *Client) redact(err error) error {
	if c.config.BotToken == "" || !strings.Contains(err.Error(), c.config.BotToken) {
		return err
	}
	return &redactedError{
		msg: strings.ReplaceAll(err.Error(), c.config.BotToken, "<redacted>"),
		err: err,
	}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// isBreakerSuccess counts a request Telegram refused for its content or
// credentials as a success. Only transport errors, 429 and 5xx trip the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	appErr, ok := pkgerrors.AsAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == codeRequestRejected || appErr.Code == codeInvalidBotToken
}

func classifyFailure(statusCode int, failure APIResponse, body []byte) error {
	description := failure.Description
	if description == "" {
		description = strings.TrimSpace(string(body))
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusNotFound:
		return pkgerrors.NewExternalError(serviceName, "invalid bot token").
			WithCode(codeInvalidBotToken).
			WithContext("status_code", statusCode)
	case statusCode == http.StatusTooManyRequests:
		appErr := pkgerrors.NewRateLimitError(serviceName)
		if failure.Parameters != nil && failure.Parameters.RetryAfter > 0 {
			appErr.WithContext("retry_after", failure.Parameters.RetryAfter)
		}
		return appErr
	case statusCode >= http.StatusInternalServerError:
		return pkgerrors.NewUnavailableError(serviceName).WithContext("status_code", statusCode)
	default:
		return pkgerrors.NewExternalError(serviceName, fmt.Sprintf("HTTP %d: %s", statusCode, description)).
			WithCode(codeRequestRejected).
			WithContext("status_code", statusCode)
	}
}

// CircuitBreaker exposes the breaker guarding sendMessage, for health reporting
func (c *Client) CircuitBreaker() interfaces.CircuitBreaker {
	return c.circuitBreaker
}
