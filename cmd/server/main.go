package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/votingapp/internal/adapters/handler/http"
	"github.com/vncsmyrnk/votingapp/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository"
	"github.com/vncsmyrnk/votingapp/internal/config"
	"github.com/vncsmyrnk/votingapp/internal/core/services"
	"github.com/vncsmyrnk/votingapp/internal/logger"
)

func main() {
	envLoaded := config.LoadDotEnv()

	log := logger.New("info", "voting-app-api")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(cfg.LogLevel, "voting-app-api")
	if !envLoaded {
		log.Debug().Msg("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store unavailable")
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	limiter, closeLimiter := newVoteLimiter(ctx, cfg, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := http.NewMetrics(reg)

	pollService := services.NewPollService(repos.Polls)
	voteService := services.NewVoteService(repos.Polls, repos.Votes)
	resultService := services.NewResultService(repos.Polls)

	handler := http.NewHandler(
		http.NewPollHandler(pollService, resultService),
		http.NewVoteHandler(voteService, metrics),
		http.NewHealthHandler(repos.Health),
		http.RouterConfig{
			CORSOrigins: cfg.CORSOrigins,
			TrustProxy:  cfg.TrustProxy,
			VoteLimiter: limiter,
			Metrics:     metrics,
			Logger:      log,
		},
	)

	server := &stdhttp.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.Environment).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete")
		exitCode = 1
	}
	closeLimiter()
	if err := repos.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to close store")
		exitCode = 1
	}
	os.Exit(exitCode)
}

// newVoteLimiter prefers Redis so the budget is shared between instances and
// falls back to an in-process limiter when Redis is absent or unreachable.
func newVoteLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ratelimit.Limiter, func()) {
	if cfg.VoteRateLimit <= 0 {
		log.Warn().Msg("vote rate limiting disabled")
		return nil, func() {}
	}

	if cfg.RedisURL != "" {
		rdb, err := ratelimit.ConnectRedis(ctx, cfg.RedisURL)
		if err == nil {
			log.Info().Msg("vote rate limiter backed by redis")
			return ratelimit.NewRedisLimiter(rdb, cfg.VoteRateLimit, cfg.VoteRateWindow), func() { _ = rdb.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limiter")
	}

	mem := ratelimit.NewMemoryLimiter(cfg.VoteRateLimit, cfg.VoteRateWindow)
	return mem, mem.Close
}
