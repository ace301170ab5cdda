package middleware

import (
	"bytes"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
	"github.com/igorsal/webhook-relay/pkg/logger"
	"github.com/igorsal/webhook-relay/pkg/metrics"
)

const testSecret = "test-webhook-secret"

func TestComputeSignature_GitHubExample(t *testing.T) {
	// Example from GitHub's "Validating webhook deliveries" documentation
	got := ComputeSignature([]byte("Hello, World!"), "It's a Secret to Everybody")
	want := "sha256=757107ea0eb2509fc211221cce984b8a37570b6d7586c22c46f4379c8b043e17"

	if got != want {
		t.Errorf("ComputeSignature() = %s, want %s", got, want)
	}
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		body := make([]byte, rng.Intn(512))
		rng.Read(body)
		secret := []byte{byte('a' + rng.Intn(26)), byte('a' + rng.Intn(26)), byte('0' + rng.Intn(10))}

		sig := ComputeSignature(body, string(secret))
		if err := VerifySignature(body, string(secret), sig); err != nil {
			t.Fatalf("VerifySignature rejected its own signature for body %x: %v", body, err)
		}

		tampered := append([]byte{}, body...)
		tampered = append(tampered, 'x')
		if err := VerifySignature(tampered, string(secret), sig); err == nil {
			t.Fatalf("VerifySignature accepted a signature for a different body")
		}
	}
}

func TestVerifySignature_Rejections(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	valid := ComputeSignature(body, testSecret)

	tests := []struct {
		name      string
		secret    string
		signature string
		wantMsg   string
	}{
		{"missing", testSecret, "", MsgMissingSignature},
		{"wrong secret", "other-secret", valid, MsgInvalidSignature},
		{"zeros", testSecret, "sha256=" + strings.Repeat("0", 64), MsgInvalidSignature},
		{"truncated", testSecret, valid[:len(valid)-2], MsgInvalidSignature},
		{"no prefix", testSecret, strings.TrimPrefix(valid, "sha256="), MsgInvalidSignature},
		{"sha1 prefix", testSecret, "sha1=" + strings.TrimPrefix(valid, "sha256="), MsgInvalidSignature},
		{"uppercase hex", testSecret, "sha256=" + strings.ToUpper(strings.TrimPrefix(valid, "sha256=")), MsgInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(body, tt.secret, tt.signature)

			appErr, ok := pkgerrors.AsAppError(err)
			if !ok {
				t.Fatalf("VerifySignature() = %v, want AppError", err)
			}
			if appErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("StatusCode = %d, want 401", appErr.StatusCode)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", appErr.Message, tt.wantMsg)
			}
		})
	}
}

func newAuthChain(t *testing.T, next http.Handler) (http.Handler, *metrics.PrometheusCollector) {
	t.Helper()
	collector := metrics.NewPrometheusCollector(prometheus.NewRegistry())
	return GitHubWebhookAuth(testSecret, logger.NewNop(), collector)(next), collector
}

func TestGitHubWebhookAuth(t *testing.T) {
	body := []byte(`{"action":"opened","pull_request":{"title":"Fix bug"}}`)

	tests := []struct {
		name       string
		signature  string
		setHeader  bool
		wantStatus int
		wantBody   string
		wantNext   bool
		wantReason string
	}{
		{"valid", ComputeSignature(body, testSecret), true, http.StatusOK, "", true, ""},
		{"missing", "", false, http.StatusUnauthorized, MsgMissingSignature, false, "missing"},
		{"invalid", ComputeSignature(body, "wrong"), true, http.StatusUnauthorized, MsgInvalidSignature, false, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nextBody []byte
			nextCalled := false
			handler, collector := newAuthChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				nextBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
			if tt.setHeader {
				req.Header.Set("x-hub-signature-256", tt.signature)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if nextCalled != tt.wantNext {
				t.Errorf("next called = %v, want %v", nextCalled, tt.wantNext)
			}
			if tt.wantNext && !bytes.Equal(nextBody, body) {
				t.Errorf("next handler saw body %q, want the original bytes", nextBody)
			}
			if tt.wantReason != "" {
				got := testutil.ToFloat64(collector.Counter("webhook_signature_failures_total").With(prometheus.Labels{"reason": tt.wantReason}))
				if got != 1 {
					t.Errorf("signature failure counter = %v, want 1", got)
				}
			}
		})
	}
}

func TestGitHubWebhookAuth_RawBytesNotReencoded(t *testing.T) {
	// Whitespace and key order differ from what a JSON re-encode would produce
	body := []byte("{ \"b\": 1,\n  \"a\": \"\\u00e9\" }")

	handler, _ := newAuthChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhook/github", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, ComputeSignature(body, testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
