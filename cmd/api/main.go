package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nikhilbhutani/videoscribe/internal/api"
	"github.com/nikhilbhutani/videoscribe/internal/audit"
	"github.com/nikhilbhutani/videoscribe/internal/config"
	"github.com/nikhilbhutani/videoscribe/internal/database"
	"github.com/nikhilbhutani/videoscribe/internal/provider"
	"github.com/nikhilbhutani/videoscribe/internal/queue"
	"github.com/nikhilbhutani/videoscribe/internal/transcription"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (optional, readiness only)
	var db *pgxpool.Pool
	if pool, err := database.NewPool(ctx, cfg.Database); err == nil {
		db = pool
		defer db.Close()
	} else if !errors.Is(err, database.ErrNotConfigured) {
		slog.Warn("database unavailable, running without DB", "error", err)
	}

	// Redis carries run records to the worker; without it they are only logged.
	var (
		rdb      *redis.Client
		recorder audit.Recorder = audit.LogRecorder{Logger: logger}
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, run records will be retried by the queue", "error", err)
		}

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		recorder = qc
	}

	client := provider.NewClient(cfg.Provider)
	svc := transcription.New(cfg, client, recorder)

	router := api.NewRouter(cfg, svc, db, rdb)
	defer router.Close()
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       cfg.Provider.UploadTimeout,
		// A request holds its connection until the provider job is terminal.
		WriteTimeout: cfg.Provider.UploadTimeout + cfg.Poll.Timeout + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Closing the connections cancels the runs still polling.
			slog.Warn("server forced shutdown", "error", err)
			return srv.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
