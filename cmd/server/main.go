package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/pflag"

	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/database"
	"github.com/civix-app/civix-server/internal/logging"
	"github.com/civix-app/civix-server/internal/server"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/civix-app/civix-server/internal/store/memory"
	"github.com/civix-app/civix-server/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var (
		st           store.Store
		pgLogHandler *logging.PGHandler
	)
	cleanupDone := make(chan struct{})

	switch cfg.Store {
	case config.StorePostgres:
		if err := database.Connect(cfg); err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.MigrateShared(); err != nil {
			slog.Error("shared migration failed", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := database.MigrateSpatial(ctx)
		cancel()
		if err != nil {
			slog.Error("spatial migration failed", "error", err)
			os.Exit(1)
		}
		if cfg.MigrateOnly {
			slog.Info("migrations applied")
			return
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLogHandler = logging.NewPGHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))
		logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

		st = postgres.New(database.DB)
	case config.StoreMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		st = memory.New()
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	srv := server.New(cfg, st)
	srv.Trending.Start(cfg.TrendingTTL, cleanupDone)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.Store)
		if err := srv.App.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := srv.App.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	// Close database connections
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
		}
	}

	slog.Info("server stopped")
}
