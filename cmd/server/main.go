package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/igorsal/webhook-relay/api/handlers"
	apimiddleware "github.com/igorsal/webhook-relay/api/middleware"
	"github.com/igorsal/webhook-relay/internal/config"
	webhookhandlers "github.com/igorsal/webhook-relay/internal/handlers"
	"github.com/igorsal/webhook-relay/internal/interfaces"
	"github.com/igorsal/webhook-relay/internal/middleware"
	"github.com/igorsal/webhook-relay/internal/services"
	"github.com/igorsal/webhook-relay/io/telegram"
	"github.com/igorsal/webhook-relay/pkg/logger"
	"github.com/igorsal/webhook-relay/pkg/metrics"
)

const (
	ShutdownTimeout = 30 * time.Second
	IdleTimeout     = 120 * time.Second
)

// Application holds all dependencies
type Application struct {
	config         *config.Config
	logger         interfaces.Logger
	metrics        interfaces.MetricsCollector
	telegramClient *telegram.Client
	notifier       interfaces.Notifier
	server         *http.Server
}

func main() {
	app, err := initializeApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	app.logger.Info("Starting webhook relay",
		"chat_id", app.config.Telegram.ChatID,
		"manual_notify", app.config.Admin.Token != "",
	)

	if err := app.run(); err != nil {
		app.logger.Fatal("Application failed to run", err)
	}
}

// initializeApplication wires configuration, clients and services
func initializeApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	collector := metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)

	telegramClient := telegram.NewClient(cfg.Telegram, log, collector)
	notifier := services.NewNotifierService(telegramClient, log, collector)

	app := &Application{
		config:         cfg,
		logger:         log,
		metrics:        collector,
		telegramClient: telegramClient,
		notifier:       notifier,
	}

	app.setupServer()

	return app, nil
}

// setupServer configures the HTTP server with all routes and middleware
func (app *Application) setupServer() {
	healthHandler := handlers.NewHealthHandler(app.telegramClient.CircuitBreaker(), app.logger, app.metrics)
	webhookHandler := webhookhandlers.NewGitHubWebhookHandler(app.notifier, app.logger, app.metrics)

	router := mux.NewRouter()

	// Apply global middleware in order
	router.Use(middleware.RequestIDMiddleware)
	router.Use(apimiddleware.PanicRecoveryMiddleware(app.logger))
	router.Use(apimiddleware.MetricsMiddleware(app.metrics))
	router.Use(middleware.LoggingMiddleware(app.logger))

	// Public endpoints
	router.HandleFunc("/health", healthHandler.Handle).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Signed GitHub webhooks
	webhookRouter := router.PathPrefix("/webhook").Subrouter()
	webhookRouter.Use(middleware.GitHubWebhookAuth(app.config.GitHub.WebhookSecret, app.logger, app.metrics))
	webhookRouter.HandleFunc("/github", webhookHandler.Handle).Methods(http.MethodPost)

	// Admin endpoints, only when a token is configured
	if app.config.Admin.Token != "" {
		manualNotifyHandler := handlers.NewManualNotifyHandler(app.telegramClient, app.logger, app.metrics)

		adminRouter := router.PathPrefix("/manual-notify").Subrouter()
		adminRouter.Use(apimiddleware.TokenAuthMiddleware(app.config.Admin.Token, app.logger))
		adminRouter.HandleFunc("", manualNotifyHandler.Handle).Methods(http.MethodPost)
	}

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}
}

// run starts the application and handles graceful shutdown
func (app *Application) run() error {
	serverErrors := make(chan error, 1)

	go func() {
		var err error
		if app.config.Server.TLSEnabled() {
			app.logger.Info("Starting HTTPS server",
				"host", app.config.Server.Host,
				"port", app.config.Server.Port,
				"cert_file", app.config.Server.TLSCertFile,
				"key_file", app.config.Server.TLSKeyFile,
			)
			err = app.server.ListenAndServeTLS(app.config.Server.TLSCertFile, app.config.Server.TLSKeyFile)
		} else {
			app.logger.Info("Starting HTTP server",
				"host", app.config.Server.Host,
				"port", app.config.Server.Port,
			)
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)

	case <-ctx.Done():
		app.logger.Info("Shutdown signal received")
		return app.gracefulShutdown()
	}
}

// gracefulShutdown performs graceful shutdown with timeout
func (app *Application) gracefulShutdown() error {
	app.logger.Info("Starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	shutdownComplete := make(chan error, 1)

	go func() {
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			shutdownComplete <- fmt.Errorf("server shutdown failed: %w", err)
			return
		}
		shutdownComplete <- nil
	}()

	select {
	case err := <-shutdownComplete:
		if err != nil {
			app.logger.Error("Graceful shutdown failed", err)
			if closeErr := app.server.Close(); closeErr != nil {
				app.logger.Error("Force shutdown also failed", closeErr)
			}
			return err
		}
		app.logger.Info("Graceful shutdown completed successfully")
		return nil

	case <-shutdownCtx.Done():
		app.logger.Error("Shutdown timeout exceeded, forcing close", nil)
		if err := app.server.Close(); err != nil {
			app.logger.Error("Force shutdown failed", err)
		}
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
