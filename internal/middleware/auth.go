package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/igorsal/webhook-relay/internal/interfaces"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

const (
	// SignatureHeader carries "sha256=<hex hmac>" of the raw body
	SignatureHeader = "X-Hub-Signature-256"

	// MaxPayloadSize matches GitHub's 25 MB webhook payload cap
	MaxPayloadSize = 25 << 20

	MsgMissingSignature = "Missing signature"
	MsgInvalidSignature = "Invalid signature"

	signaturePrefix = "sha256="
)

// ComputeSignature returns the header value GitHub sends for body signed with secret
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the raw, unparsed request body.
// The comparison is constant time; a length mismatch is simply unequal.
func VerifySignature(body []byte, secret, signature string) error {
	if signature == "" {
		return pkgerrors.NewUnauthorizedError(MsgMissingSignature).WithCode("missing_signature")
	}

	expected := ComputeSignature(body, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return pkgerrors.NewUnauthorizedError(MsgInvalidSignature).WithCode("invalid_signature")
	}
	return nil
}

// GitHubWebhookAuth validates GitHub webhook signatures before any handler
// sees the body, then hands the same bytes downstream.
func GitHubWebhookAuth(secret string, logger interfaces.Logger, metrics interfaces.MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := r.Header.Get(SignatureHeader)
			if signature == "" {
				logger.Warn("Missing X-Hub-Signature-256 header",
					"request_id", RequestIDFromContext(r.Context()),
					"remote_addr", r.RemoteAddr,
				)
				metrics.IncrementCounter("webhook_signature_failures_total", map[string]string{"reason": "missing"})
				writePlainText(w, http.StatusUnauthorized, MsgMissingSignature)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadSize))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					logger.Warn("Webhook payload too large", "limit_bytes", tooLarge.Limit)
					writePlainText(w, http.StatusRequestEntityTooLarge, "Payload too large")
					return
				}
				logger.Error("Failed to read request body", err)
				writePlainText(w, http.StatusBadRequest, "Failed to read body")
				return
			}

			if err := VerifySignature(body, secret, signature); err != nil {
				logger.Warn("Invalid GitHub webhook signature",
					"request_id", RequestIDFromContext(r.Context()),
					"remote_addr", r.RemoteAddr,
					"body_bytes", len(body),
				)
				metrics.IncrementCounter("webhook_signature_failures_total", map[string]string{"reason": "invalid"})
				writePlainText(w, http.StatusUnauthorized, MsgInvalidSignature)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))

			logger.Debug("GitHub webhook signature validated successfully",
				"request_id", RequestIDFromContext(r.Context()),
			)
			next.ServeHTTP(w, r)
		})
	}
}

func writePlainText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}
