package ports

import (
	"context"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
)

type VoteRepository interface {
	// Record appends the vote to the ledger and credits the chosen option.
	// A violation of the (poll_id, voter_ip) uniqueness constraint is
	// reported as domain.ErrAlreadyVoted.
	Record(ctx context.Context, vote *domain.Vote) error
	HasVoted(ctx context.Context, pollID, voterIP string) (bool, error)
	GetByVoter(ctx context.Context, pollID, voterIP string) (*domain.Vote, error)
}

type VoteInput struct {
	PollID   string
	OptionID string
	VoterIP  string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Vote, error)
	MyVote(ctx context.Context, pollID, voterIP string) (*domain.Vote, error)
}
