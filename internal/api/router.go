package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/videoscribe/internal/api/handlers"
	"github.com/nikhilbhutani/videoscribe/internal/api/middleware"
	"github.com/nikhilbhutani/videoscribe/internal/config"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	svc   handlers.Transcriber
	rl    *middleware.RateLimiter
}

// NewRouter builds the HTTP surface. db and rdb are only used for readiness
// probes and may be nil.
func NewRouter(cfg *config.Config, svc handlers.Transcriber, db *pgxpool.Pool, rdb *redis.Client) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		svc:   svc,
		rl:    middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}
}

// Close releases background work owned by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	// Probes and metrics
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	transcribe := handlers.NewTranscribeHandler(rt.svc, rt.cfg.Server.MaxUploadBytes)

	r.Group(func(r chi.Router) {
		r.Use(rt.rl.Limit)
		r.Post("/transcribe-video", transcribe.Transcribe)
		r.Post("/api/v1/transcriptions", transcribe.Transcribe)
	})

	return r
}
