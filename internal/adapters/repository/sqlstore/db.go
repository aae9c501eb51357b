package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	maxRetries    = 5
	retryInterval = 2 * time.Second
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect captures the differences between the supported SQL engines.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", name)
}

var placeholderRe = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for engines that only take "?". Queries in
// this package reference each placeholder once, in order.
func (d Dialect) rebind(query string) string {
	if d == Postgres {
		return query
	}
	return placeholderRe.ReplaceAllString(query, "?")
}

// uniqueIndex identifies a unique index in each engine's violation report:
// PostgreSQL names the index, SQLite lists its columns.
type uniqueIndex struct {
	name    string
	columns string
}

var voterIndex = uniqueIndex{
	name:    "votes_poll_id_voter_ip_key",
	columns: "votes.poll_id, votes.voter_ip",
}

func (d Dialect) violates(err error, idx uniqueIndex) bool {
	switch d {
	case Postgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == idx.name
	case SQLite:
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) {
			return false
		}
		code := sqErr.Code()
		if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return false
		}
		return strings.Contains(sqErr.Error(), idx.columns)
	}
	return false
}

// Open connects to the database and retries while it comes up. SQLite is
// limited to one connection so writers never hit SQLITE_BUSY.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
		db.SetConnMaxIdleTime(30 * time.Minute)
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return db, nil
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	db.Close()
	return nil, fmt.Errorf("database connection failed after %d attempts: %w", maxRetries, err)
}

// Migrations lists the embedded migration files of the dialect in apply order.
func Migrations(dialect Dialect) ([]string, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigration executes every statement of one embedded migration file.
func ApplyMigration(ctx context.Context, db *sql.DB, dialect Dialect, name string) error {
	content, err := migrationsFS.ReadFile(path.Join("migrations", string(dialect), name))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	for _, stmt := range strings.Split(string(content), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}
	return nil
}

// EnsureSchema applies all migrations. Every statement is idempotent, so it
// runs on each startup; the unique indexes must exist before serving votes.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	names, err := Migrations(dialect)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ApplyMigration(ctx, db, dialect, name); err != nil {
			return err
		}
	}
	return nil
}
