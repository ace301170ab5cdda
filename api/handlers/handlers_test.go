package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
	"github.com/igorsal/webhook-relay/pkg/logger"
	"github.com/igorsal/webhook-relay/pkg/metrics"
)

type fakeRelay struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeRelay) SendMessage(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

type fakeBreaker struct{ state string }

func (f fakeBreaker) Execute(req func() (interface{}, error)) (interface{}, error) { return req() }
func (f fakeBreaker) Name() string                                                 { return "telegram-api" }
func (f fakeBreaker) State() string                                                { return f.state }

func newManualNotify(relay *fakeRelay) *ManualNotifyHandler {
	return NewManualNotifyHandler(relay, logger.NewNop(), metrics.NewPrometheusCollector(prometheus.NewRegistry()))
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(fakeBreaker{state: "open"}, logger.NewNop(), nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp.Status != "healthy" || resp.Version == "" || resp.Timestamp == "" {
		t.Errorf("unexpected health response: %+v", resp)
	}
	if resp.Relay == nil || resp.Relay.State != "open" || resp.Relay.CircuitBreaker != "telegram-api" {
		t.Errorf("relay = %+v, want telegram-api open", resp.Relay)
	}
}

func TestHealthHandler_RejectsPost(t *testing.T) {
	h := NewHealthHandler(nil, logger.NewNop(), nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestManualNotifyHandler_Relays(t *testing.T) {
	relay := &fakeRelay{}
	h := newManualNotify(relay)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/manual-notify", strings.NewReader(`{"text":"*ping* from ops"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(relay.texts) != 1 || relay.texts[0] != "*ping* from ops" {
		t.Errorf("relayed %q, want the text verbatim", relay.texts)
	}
}

func TestManualNotifyHandler_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		relayErr   error
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{"malformed", `{"text":`, nil, http.StatusBadRequest, "invalid request body", 0},
		{"empty text", `{"text":""}`, nil, http.StatusBadRequest, "text field is required", 0},
		{"too long", `{"text":"` + strings.Repeat("a", MaxMessageLength+1) + `"}`, nil, http.StatusBadRequest, "text exceeds 4096 characters", 0},
		{"relay unavailable", `{"text":"hi"}`, pkgerrors.NewUnavailableError("telegram"), http.StatusServiceUnavailable, "Service telegram is unavailable", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := &fakeRelay{err: tt.relayErr}
			h := newManualNotify(relay)

			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodPost, "/manual-notify", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", resp["error"], tt.wantError)
			}
			if len(relay.texts) != tt.wantCalls {
				t.Errorf("relay called %d times, want %d", len(relay.texts), tt.wantCalls)
			}
		})
	}
}
