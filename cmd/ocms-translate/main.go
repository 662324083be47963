// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-translate/internal/config"
	"github.com/olegiv/ocms-translate/internal/handler"
	"github.com/olegiv/ocms-translate/internal/handler/api"
	"github.com/olegiv/ocms-translate/internal/logging"
	"github.com/olegiv/ocms-translate/internal/middleware"
	"github.com/olegiv/ocms-translate/internal/queue"
	"github.com/olegiv/ocms-translate/internal/scheduler"
	"github.com/olegiv/ocms-translate/internal/store"
	"github.com/olegiv/ocms-translate/internal/translate"
	"github.com/olegiv/ocms-translate/internal/version"
)

// Build-time variables injected via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	processOnce := flag.Bool("process-once", false, "Process one queue batch and exit (for external cron)")
	seedDemo := flag.Bool("seed", false, "Seed demo content before starting")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ocms-translate - asynchronous blog translation service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_API_TOKEN          Admin API bearer token (required, min 24 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEEPL_API_KEY      Translation API key (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEEPL_API_URL      Translation API base URL (default: https://api-free.deepl.com)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH            SQLite database path (default: ./data/translate.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_QUEUE_BATCH_SIZE   Jobs per processing run (default: 5)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_QUEUE_DELAY        Pause between jobs (default: 12s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_QUEUE_MAX_RETRIES  Attempts before a job is dead (default: 3)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_QUEUE_SCHEDULE     Cron schedule for processing runs (default: */5 * * * *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL          Redis URL for the distributed run lock (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.New(appVersion, appGitCommit, appBuildTime)

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info, *processOnce, *seedDemo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, processOnce, seedDemo bool) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed || seedDemo); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	jobs := queue.NewStore(db, queue.Config{
		BatchSize:  cfg.QueueBatchSize,
		Delay:      cfg.QueueDelay,
		MaxRetries: cfg.QueueMaxRetries,
	})

	// Jobs left in processing by a crashed run never finish on their own.
	if cfg.QueueStaleAfter > 0 {
		n, err := jobs.RecoverStale(ctx, cfg.QueueStaleAfter)
		if err != nil {
			return fmt.Errorf("recovering stale jobs: %w", err)
		}
		if n > 0 {
			slog.Warn("stale translation jobs marked failed", "count", n)
		}
	}

	runLock, closeLock, err := newRunLock(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLock()

	gateway := translate.NewClient(translate.Config{
		APIKey:  cfg.DeepLAPIKey,
		BaseURL: cfg.DeepLAPIURL,
		Timeout: cfg.TranslateTimeout,
		Logger:  logger,
	})
	processor := queue.NewProcessor(db, jobs, gateway, logger, queue.WithRunLock(runLock))

	if processOnce {
		return runOnce(ctx, processor)
	}

	worker := queue.NewWorker(processor, logger)
	worker.Start(ctx)
	defer worker.Stop()

	sched := scheduler.New(scheduler.Config{
		ProcessSchedule: cfg.QueueSchedule,
		CleanupSchedule: scheduler.DefaultCleanupSchedule,
		CleanupDays:     cfg.QueueCleanupDays,
		StaleAfter:      cfg.QueueStaleAfter,
	}, worker, jobs, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()
	for _, job := range sched.Jobs() {
		slog.Info("scheduled task", "name", job.Name, "schedule", job.Schedule, "next_run", job.NextRun)
	}

	admin := queue.NewAdmin(jobs, worker, logger)
	apiHandler := api.NewHandler(db, admin, info, logger)
	healthHandler := handler.NewHealthHandler(db, worker, cfg.APIToken, info)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	rateLimiter := middleware.NewIPRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst, logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Use(middleware.BearerToken(cfg.APIToken, logger))
		apiHandler.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.WriteNotFound(w, "Not found")
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// runOnce processes one batch in the foreground, stopping early on SIGINT/SIGTERM.
func runOnce(ctx context.Context, processor *queue.Processor) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := processor.ProcessQueue(ctx)
	if errors.Is(err, queue.ErrRunInProgress) {
		slog.Info("another queue run is in progress, nothing to do")
		return nil
	}
	if err != nil {
		return fmt.Errorf("processing queue: %w", err)
	}

	slog.Info("queue run finished",
		"claimed", result.Claimed,
		"completed", result.Completed,
		"failed", result.Failed,
		"skipped", result.Skipped)
	return nil
}

// newRunLock returns the Redis lock when configured, otherwise a local one.
func newRunLock(ctx context.Context, cfg *config.Config) (queue.RunLock, func(), error) {
	if !cfg.UseRedisLock() {
		return queue.NewLocalLock(), func() {}, nil
	}

	lock, err := queue.NewRedisLock(ctx, queue.RedisLockOptions{
		URL:            cfg.RedisURL,
		Key:            cfg.RedisLockKey(),
		TTL:            queue.DefaultLockTTL,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting run lock to redis: %w", err)
	}
	slog.Info("distributed run lock enabled", "key", cfg.RedisLockKey())

	return lock, func() {
		if err := lock.Close(); err != nil {
			slog.Error("error closing redis connection", "error", err)
		}
	}, nil
}

// parseLogLevel maps OCMS_LOG_LEVEL to a slog level.
func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
