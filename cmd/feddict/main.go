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

	"github.com/joho/godotenv"

	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/cache"
	"github.com/feddict/feddict/internal/config"
	"github.com/feddict/feddict/internal/handler"
	"github.com/feddict/feddict/internal/logging"
	"github.com/feddict/feddict/internal/middleware"
	"github.com/feddict/feddict/internal/render"
	"github.com/feddict/feddict/internal/scheduler"
	"github.com/feddict/feddict/internal/service"
	"github.com/feddict/feddict/internal/session"
	"github.com/feddict/feddict/internal/store"
	"github.com/feddict/feddict/internal/version"
	"github.com/feddict/feddict/web"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "FedDict - web front-end for the FedDict glossary\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_API_URL           Glossary API base URL (default: %s)\n", apiclient.DefaultBaseURL)
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_API_TIMEOUT       Per-request timeout (default: 5s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_DB_PATH           SQLite database path (default: ./data/feddict.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_REDIS_URL         Redis URL for the glossary cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FEDDICT_REFRESH_SCHEDULE  Cron schedule of the cache refresh (default: */10 * * * *)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println("feddict " + version.Get().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
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

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	sessionManager := session.New(db, cfg.IsDevelopment())

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		SessionManager: sessionManager,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	api := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithUserAgent(version.Get().UserAgent()),
		apiclient.WithLogger(logger),
	)
	slog.Info("glossary backend", "url", api.BaseURL(), "timeout", cfg.APITimeout)

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = cfg.CacheTTLDuration()
	cacheBackend := cache.New(cacheCfg, logger)
	defer func() {
		if err := cacheBackend.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	glossary := cache.NewGlossary(api, cacheBackend, cfg.CacheTTLDuration(), logger)
	defer glossary.Close()

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.APITimeout)
	if err := glossary.Warm(warmCtx); err != nil {
		slog.Warn("failed to preload categories", "error", err)
	}
	cancelWarm()

	events := service.NewEventService(db)

	sched := scheduler.New(logger)
	err = sched.Register(scheduler.Config{
		RefreshSchedule: cfg.RefreshSchedule,
		PruneSchedule:   scheduler.DefaultPruneSchedule,
		EventRetention:  cfg.EventRetention(),
	}, glossary, events)
	if err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	router := handler.NewRouter(handler.Deps{
		DB:              db,
		API:             api,
		Verifier:        api,
		Glossary:        glossary,
		Events:          events,
		Renderer:        renderer,
		SessionManager:  sessionManager,
		LoginProtection: loginProtection,
		Static:          web.Static(),
		Logger:          logger,
		CSRFKey:         []byte(cfg.SessionSecret)[:config.MinSessionSecretLength],
		IsDev:           cfg.IsDevelopment(),
		AccessLog:       cfg.IsDevelopment(),
		PerPage:         cfg.PerPage,
		SuggestLimit:    cfg.SuggestionLimit,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads to the backend can be slow
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
