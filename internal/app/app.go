// Package app is the composition root: it wires configuration, storage,
// services and the HTTP server into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/adlume/authd/internal/http"
	"github.com/adlume/authd/internal/mail"
	"github.com/adlume/authd/internal/metrics"
	"github.com/adlume/authd/internal/service"
	"github.com/adlume/authd/internal/store"
	"github.com/adlume/authd/internal/store/sqlite"
	"github.com/adlume/authd/pkg/cryptox"
	"github.com/adlume/authd/pkg/jwtx"
	"github.com/adlume/authd/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application bundles the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	codec    *jwtx.Codec
	registry *prometheus.Registry
	recorder *metrics.Collector

	authService         *service.AuthService
	refreshService      *service.RefreshTokenService
	resetService        *service.PasswordResetService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	codec, err := jwtx.NewCodec([]byte(cfg.SigningSecret), cfg.Issuer, cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied")
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.recorder = metrics.NewCollector(app.registry)
}

func (app *Application) initServices() {
	app.refreshService = &service.RefreshTokenService{
		Store:      app.db,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.authService = &service.AuthService{
		Store:   app.db,
		Codec:   app.codec,
		Refresh: app.refreshService,
		Metrics: app.recorder,
	}

	app.resetService = &service.PasswordResetService{
		Store:    app.db,
		Mailer:   app.newMailer(),
		Metrics:  app.recorder,
		ResetTTL: app.cfg.ResetTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.recorder,
		app.cfg.HousekeepingInterval,
	)
}

// newMailer picks the SMTP sender when a relay is configured, otherwise
// the dev log sender.
func (app *Application) newMailer() mail.Sender {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, password reset emails are logged instead of sent")
		return mail.NewLogSender(app.logger)
	}

	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:         app.cfg.SMTPHost,
		Port:         app.cfg.SMTPPort,
		Username:     app.cfg.SMTPUsername,
		Password:     app.cfg.SMTPPassword,
		From:         app.cfg.SMTPFrom,
		ResetBaseURL: app.cfg.ResetBaseURL,
	})
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.codec, BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.ResetService = app.resetService
	router.Gatherer = app.registry
	router.CookieSecure = app.cfg.Env != "dev"
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
