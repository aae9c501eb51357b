package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/mongostore"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votingapp/internal/config"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

// Repositories bundles the storage capabilities handed to the services. It
// owns the underlying client and must be closed on shutdown.
type Repositories struct {
	Polls   ports.PollRepository
	Votes   ports.VoteRepository
	Tallies ports.TallyRepository
	Health  ports.HealthChecker

	closeFn func(ctx context.Context) error
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn(ctx)
}

// Open connects to the configured store and makes sure its uniqueness
// constraints exist. Callers must not serve traffic if it fails.
func Open(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return OpenSQL(ctx, sqlstore.Postgres, cfg.DatabaseURL)
	case config.StoreSQLite:
		return OpenSQL(ctx, sqlstore.SQLite, cfg.SQLitePath)
	case config.StoreMongo:
		return OpenMongo(ctx, cfg.MongoURL, cfg.DatabaseName)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func OpenSQL(ctx context.Context, dialect sqlstore.Dialect, dsn string) (*Repositories, error) {
	db, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := sqlstore.EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return NewSQL(db, dialect), nil
}

// NewSQL wraps an already migrated database handle.
func NewSQL(db *sql.DB, dialect sqlstore.Dialect) *Repositories {
	return &Repositories{
		Polls:   sqlstore.NewPollRepository(db, dialect),
		Votes:   sqlstore.NewVoteRepository(db, dialect),
		Tallies: sqlstore.NewTallyRepository(db, dialect),
		Health:  sqlPinger{db: db},
		closeFn: func(context.Context) error { return db.Close() },
	}
}

func OpenMongo(ctx context.Context, uri, database string) (*Repositories, error) {
	client, err := mongostore.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}

	db := client.Database(database)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Repositories{
		Polls:   mongostore.NewPollRepository(db),
		Votes:   mongostore.NewVoteRepository(db),
		Tallies: mongostore.NewTallyRepository(db),
		Health:  mongostore.NewHealthChecker(client),
		closeFn: client.Disconnect,
	}, nil
}

type sqlPinger struct {
	db *sql.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
