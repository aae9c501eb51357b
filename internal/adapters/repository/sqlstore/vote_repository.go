package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type voteRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewVoteRepository(db *sql.DB, dialect Dialect) ports.VoteRepository {
	return &voteRepository{
		db:      db,
		dialect: dialect,
	}
}

// Record inserts the ledger entry and increments the option counter in one
// transaction. The increment is a single UPDATE so concurrent votes for the
// same option never lose updates. Only a violation of the (poll_id, voter_ip)
// index is a repeat vote.
func (r *voteRepository) Record(ctx context.Context, vote *domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertVote := r.dialect.rebind(`
		INSERT INTO votes (id, poll_id, option_id, voter_ip, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	_, err = tx.ExecContext(ctx, insertVote, vote.ID, vote.PollID, vote.OptionID, vote.VoterIP, vote.Timestamp)
	if err != nil {
		if r.dialect.violates(err, voterIndex) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to save vote: %w", err)
	}

	incrementTally := r.dialect.rebind(`
		UPDATE poll_options SET votes = votes + 1
		WHERE poll_id = $1 AND id = $2
	`)
	res, err := tx.ExecContext(ctx, incrementTally, vote.PollID, vote.OptionID)
	if err != nil {
		return fmt.Errorf("failed to increment tally: %w", err)
	}
	matched, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to increment tally: %w", err)
	}
	if matched != 1 {
		return domain.ErrInvalidOption
	}

	if err := tx.Commit(); err != nil {
		if r.dialect.violates(err, voterIndex) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID, voterIP string) (bool, error) {
	query := r.dialect.rebind(`SELECT 1 FROM votes WHERE poll_id = $1 AND voter_ip = $2 LIMIT 1`)
	var exists int
	err := r.db.QueryRowContext(ctx, query, pollID, voterIP).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return true, nil
}

func (r *voteRepository) GetByVoter(ctx context.Context, pollID, voterIP string) (*domain.Vote, error) {
	query := r.dialect.rebind(`
		SELECT id, poll_id, option_id, voter_ip, created_at
		FROM votes
		WHERE poll_id = $1 AND voter_ip = $2
	`)
	var vote domain.Vote
	err := r.db.QueryRowContext(ctx, query, pollID, voterIP).Scan(
		&vote.ID, &vote.PollID, &vote.OptionID, &vote.VoterIP, &vote.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return &vote, nil
}
