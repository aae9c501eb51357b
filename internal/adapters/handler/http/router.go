package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/votingapp/internal/adapters/ratelimit"
)

type RouterConfig struct {
	CORSOrigins []string
	// TrustProxy makes X-Forwarded-For / X-Real-IP the voter identity. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxy  bool
	VoteLimiter ratelimit.Limiter
	Metrics     *Metrics
	Logger      zerolog.Logger
}

func NewHandler(pollHandler *PollHandler, voteHandler *VoteHandler, healthHandler *HealthHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(cfg.Logger)...)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", healthHandler.Root)
		r.Get("/health", healthHandler.Live)
		r.Get("/health/ready", healthHandler.Ready)

		r.Route("/polls", func(r chi.Router) {
			r.Post("/", pollHandler.CreatePoll)
			r.Get("/", pollHandler.ListPolls)
			r.Get("/{id}", pollHandler.GetPoll)
			r.Delete("/{id}", pollHandler.DeletePoll)
			r.Get("/{id}/results", pollHandler.GetResults)
			r.Get("/{id}/my-vote", voteHandler.MyVote)
		})

		r.Route("/votes", func(r chi.Router) {
			if cfg.VoteLimiter != nil {
				r.With(rateLimit(cfg.VoteLimiter)).Post("/", voteHandler.CastVote)
			} else {
				r.Post("/", voteHandler.CastVote)
			}
		})
	})

	return r
}
