package main

import (
	"context"
	"flag"
	"time"

	"github.com/vncsmyrnk/votingapp/internal/adapters/repository"
	"github.com/vncsmyrnk/votingapp/internal/config"
	"github.com/vncsmyrnk/votingapp/internal/core/services"
	"github.com/vncsmyrnk/votingapp/internal/logger"
)

// tallyreconcile recomputes every option counter from the vote ledger. Run it
// after a crash between a ledger write and its counter increment.
func main() {
	config.LoadDotEnv()

	log := logger.New("info", "tallyreconcile")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(cfg.LogLevel, "tallyreconcile")

	var pollID string
	var timeout time.Duration
	flag.StringVar(&pollID, "poll", "", "Reconcile only this poll")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum job duration")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store unavailable")
	}
	tallyService := services.NewTallyService(repos.Polls, repos.Tallies)

	log.Info().Str("poll_id", pollID).Msg("starting tally reconciliation")

	if pollID != "" {
		err = tallyService.Reconcile(ctx, pollID)
	} else {
		err = tallyService.ReconcileAll(ctx)
	}
	_ = repos.Close(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("tally reconciliation failed")
	}

	log.Info().Msg("tally reconciliation completed successfully")
}
