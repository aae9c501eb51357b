package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type tallyRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewTallyRepository(db *sql.DB, dialect Dialect) ports.TallyRepository {
	return &tallyRepository{
		db:      db,
		dialect: dialect,
	}
}

func (r *tallyRepository) Recount(ctx context.Context, pollID string) error {
	query := r.dialect.rebind(`
		UPDATE poll_options
		SET votes = (
			SELECT COUNT(*) FROM votes v
			WHERE v.poll_id = poll_options.poll_id AND v.option_id = poll_options.id
		)
		WHERE poll_id = $1
	`)

	if _, err := r.db.ExecContext(ctx, query, pollID); err != nil {
		return fmt.Errorf("failed to recount votes for poll %s: %w", pollID, err)
	}
	return nil
}
