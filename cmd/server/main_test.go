package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/igorsal/webhook-relay/internal/config"
	"github.com/igorsal/webhook-relay/internal/middleware"
	"github.com/igorsal/webhook-relay/internal/services"
	"github.com/igorsal/webhook-relay/io/telegram"
	"github.com/igorsal/webhook-relay/pkg/logger"
	"github.com/igorsal/webhook-relay/pkg/metrics"
)

func newTestApplication(t *testing.T, adminToken string) *Application {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Telegram: config.TelegramConfig{
			BotToken: "42:token",
			ChatID:   "-1",
			BaseURL:  "http://127.0.0.1:1",
			Timeout:  time.Second,
		},
		GitHub: config.GitHubConfig{WebhookSecret: "secret"},
		Admin:  config.AdminConfig{Token: adminToken},
	}

	log := logger.NewNop()
	collector := metrics.NewPrometheusCollector(prometheus.NewRegistry())
	client := telegram.NewClient(cfg.Telegram, log, collector)

	app := &Application{
		config:         cfg,
		logger:         log,
		metrics:        collector,
		telegramClient: client,
		notifier:       services.NewNotifierService(client, log, collector),
	}
	app.setupServer()
	return app
}

func TestRoutes(t *testing.T) {
	ignored := `{"action":"starred","repository":{"name":"repo1"}}`

	tests := []struct {
		name       string
		adminToken string
		method     string
		path       string
		body       string
		sign       bool
		wantStatus int
	}{
		{"health", "", http.MethodGet, "/health", "", false, http.StatusOK},
		{"webhook ignored event", "", http.MethodPost, "/webhook/github", ignored, true, http.StatusOK},
		{"webhook unsigned", "", http.MethodPost, "/webhook/github", ignored, false, http.StatusUnauthorized},
		{"webhook wrong method", "", http.MethodGet, "/webhook/github", "", false, http.StatusMethodNotAllowed},
		{"manual notify disabled", "", http.MethodPost, "/manual-notify", `{"text":"hi"}`, false, http.StatusNotFound},
		{"manual notify without token", "admin", http.MethodPost, "/manual-notify", `{"text":"hi"}`, false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t, tt.adminToken)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.sign {
				req.Header.Set(middleware.SignatureHeader, middleware.ComputeSignature([]byte(tt.body), "secret"))
			}
			rec := httptest.NewRecorder()
			app.server.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}
