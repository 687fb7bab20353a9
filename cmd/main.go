// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/config"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/database"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/handler"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/i18n"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository/postgres"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository/postgres/migrations"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/service"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/telemetry"
)

const serviceName = "conference-scheduler"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Configuration and logging ──────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// ── 2. Open the store ─────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	loc, err := time.LoadLocation(cfg.ScheduleTimezone)
	if err != nil {
		return fmt.Errorf("load SCHEDULE_TIMEZONE %q: %w", cfg.ScheduleTimezone, err)
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	opts := []service.Option{service.WithLogger(logger), service.WithLocation(loc)}
	h := handler.New(
		service.NewEventService(store, opts...),
		service.NewSessionService(store, opts...),
		service.NewRegistrationService(store, opts...),
		i18n.NewTranslator(cfg.DefaultLocale, logger),
		logger,
		cfg.RetryMaxTries,
	)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Router(h, logger, cfg.MetricsEnabled),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "store", cfg.StoreDriver, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStore connects the configured driver. Postgres is migrated once the
// pool is reachable; the sqlite store migrates itself on open.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("opened sqlite store", "path", cfg.SQLitePath)
		return store, nil
	default:
		pool, err := database.NewPool(ctx, database.PoolConfig{
			DSN:      cfg.DatabaseURL,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
			Attempts: cfg.ConnectAttempts,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if cfg.MigrationsEnabled {
			if err := database.RunMigrations(cfg.DatabaseURL, migrations.FS, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		logger.Info("connected to PostgreSQL")
		return postgres.New(pool), nil
	}
}
