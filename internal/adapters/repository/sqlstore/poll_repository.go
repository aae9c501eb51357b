package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type pollRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPollRepository(db *sql.DB, dialect Dialect) ports.PollRepository {
	return &pollRepository{
		db:      db,
		dialect: dialect,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := r.dialect.rebind(`
		INSERT INTO polls (id, title, description, created_at, active)
		VALUES ($1, $2, $3, $4, $5)
	`)
	_, err = tx.ExecContext(ctx, queryPoll, poll.ID, poll.Title, poll.Description, poll.CreatedAt, poll.Active)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	queryOption := r.dialect.rebind(`
		INSERT INTO poll_options (poll_id, id, position, title, description, votes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer stmt.Close()

	for i, opt := range poll.Options {
		_, err = stmt.ExecContext(ctx, poll.ID, opt.ID, i, opt.Title, opt.Description, opt.Votes)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	return r.getOne(ctx, `
		SELECT id, title, description, created_at, active
		FROM polls
		WHERE id = $1
	`, id)
}

func (r *pollRepository) GetActiveByID(ctx context.Context, id string) (*domain.Poll, error) {
	return r.getOne(ctx, `
		SELECT id, title, description, created_at, active
		FROM polls
		WHERE id = $1 AND active = TRUE
	`, id)
}

func (r *pollRepository) ListActive(ctx context.Context) ([]*domain.Poll, error) {
	return r.list(ctx, `
		SELECT id, title, description, created_at, active
		FROM polls
		WHERE active = TRUE
		ORDER BY pk
	`)
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	return r.list(ctx, `
		SELECT id, title, description, created_at, active
		FROM polls
		ORDER BY pk
	`)
}

func (r *pollRepository) Deactivate(ctx context.Context, id string) error {
	query := r.dialect.rebind(`UPDATE polls SET active = FALSE WHERE id = $1`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}
	if matched == 0 {
		return domain.ErrPollNotFound
	}
	return nil
}

func (r *pollRepository) getOne(ctx context.Context, query string, id string) (*domain.Poll, error) {
	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(query), id).Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.CreatedAt, &poll.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	options, err := r.fetchOptions(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	poll.Options = options

	return &poll, nil
}

// list reads every poll row before loading options so it never holds two
// connections at once (SQLite runs with a single one).
func (r *pollRepository) list(ctx context.Context, query string) ([]*domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query))
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	var polls []*domain.Poll
	for rows.Next() {
		var poll domain.Poll
		if err := rows.Scan(&poll.ID, &poll.Title, &poll.Description, &poll.CreatedAt, &poll.Active); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &poll)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	rows.Close()

	for _, poll := range polls {
		options, err := r.fetchOptions(ctx, poll.ID)
		if err != nil {
			return nil, err
		}
		poll.Options = options
	}
	return polls, nil
}

func (r *pollRepository) fetchOptions(ctx context.Context, pollID string) ([]domain.PollOption, error) {
	queryOptions := r.dialect.rebind(`
		SELECT id, title, description, votes
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position
	`)
	rows, err := r.db.QueryContext(ctx, queryOptions, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll options: %w", err)
	}
	defer rows.Close()

	options := []domain.PollOption{}
	for rows.Next() {
		var opt domain.PollOption
		if err := rows.Scan(&opt.ID, &opt.Title, &opt.Description, &opt.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}
