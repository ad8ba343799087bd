package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
	"github.com/nikhilbhutani/videoscribe/internal/config"
	"github.com/nikhilbhutani/videoscribe/internal/database"
	"github.com/nikhilbhutani/videoscribe/internal/queue"
	"github.com/nikhilbhutani/videoscribe/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Addr == "" {
		slog.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a database the worker still drains the queue into the log.
	var store audit.Recorder = audit.LogRecorder{Logger: logger}
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, recording runs to the log only", "error", err)
	} else {
		defer db.Close()
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		store = audit.NewStore(db)
	}

	srv := queue.NewServer(cfg.Redis, cfg.Worker)
	registry := queue.NewHandlersRegistry()

	// Register workers
	auditWorker := workers.NewAuditWorker(store)
	registry.Register(queue.TypeAuditRecord, asynq.HandlerFunc(auditWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency)
	if err := srv.Start(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("shutting down worker...")
	srv.Shutdown()
	slog.Info("worker stopped")
}
