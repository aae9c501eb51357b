package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/vncsmyrnk/votingapp/internal/adapters/repository"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votingapp/internal/config"
	"github.com/vncsmyrnk/votingapp/internal/logger"
)

// migrations prepares the configured store: tables and unique indexes for SQL
// stores, indexes for MongoDB. A migration name applies a single SQL file.
//
//	migrations [-driver postgres|sqlite|mongo] [-seed] [migration-name]
func main() {
	config.LoadDotEnv()

	var driver string
	var seed bool
	flag.StringVar(&driver, "driver", os.Getenv("STORE_DRIVER"), "Store driver: postgres, sqlite or mongo")
	flag.BoolVar(&seed, "seed", false, "Insert the sample poll when it is missing")
	flag.Parse()

	if driver != "" {
		os.Setenv("STORE_DRIVER", driver)
	}

	log := logger.New("info", "migrations")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = logger.New(cfg.LogLevel, "migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if name := flag.Arg(0); name != "" {
		if err := applyOne(ctx, cfg, name, log); err != nil {
			log.Fatal().Err(err).Str("migration", name).Msg("migration failed")
		}
		return
	}

	repos, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("schema setup failed")
	}
	defer repos.Close(context.Background())
	log.Info().Str("driver", cfg.StoreDriver).Msg("schema is up to date")

	if seed {
		created, err := repository.SeedSamplePoll(ctx, repos.Polls)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample poll")
		}
		log.Info().Bool("created", created).Str("poll_id", repository.SamplePollID).Msg("sample poll seeded")
	}
}

func applyOne(ctx context.Context, cfg *config.Config, name string, log zerolog.Logger) error {
	if cfg.StoreDriver == config.StoreMongo {
		return fmt.Errorf("named migrations only apply to sql stores")
	}

	dialect, err := sqlstore.ParseDialect(cfg.StoreDriver)
	if err != nil {
		return err
	}
	dsn := cfg.DatabaseURL
	if dialect == sqlstore.SQLite {
		dsn = cfg.SQLitePath
	}

	file, err := migrationFile(dialect, name)
	if err != nil {
		return err
	}

	db, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.ApplyMigration(ctx, db, dialect, file); err != nil {
		return err
	}
	log.Info().Str("file", file).Msg("migration file executed successfully")
	return nil
}

func migrationFile(dialect sqlstore.Dialect, name string) (string, error) {
	pattern := regexp.MustCompile(fmt.Sprintf(`^.*%s(\.up)?\.sql$`, regexp.QuoteMeta(name)))

	files, err := sqlstore.Migrations(dialect)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if pattern.MatchString(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("migration file %q not found", name)
}
