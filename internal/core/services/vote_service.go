package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type voteService struct {
	pollRepo ports.PollRepository
	voteRepo ports.VoteRepository
}

func NewVoteService(pollRepo ports.PollRepository, voteRepo ports.VoteRepository) ports.VoteService {
	return &voteService{
		pollRepo: pollRepo,
		voteRepo: voteRepo,
	}
}

// Vote casts a single vote. The HasVoted lookup only short-circuits obvious
// repeats; the ledger's (poll_id, voter_ip) unique index is what rejects
// concurrent duplicates, surfaced by Record as domain.ErrAlreadyVoted.
func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Vote, error) {
	if input.VoterIP == "" {
		return nil, fmt.Errorf("%w: voter identity is required", domain.ErrValidation)
	}

	poll, err := s.pollRepo.GetActiveByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}

	if _, ok := poll.Option(input.OptionID); !ok {
		return nil, domain.ErrInvalidOption
	}

	hasVoted, err := s.voteRepo.HasVoted(ctx, input.PollID, input.VoterIP)
	if err != nil {
		return nil, err
	}
	if hasVoted {
		return nil, domain.ErrAlreadyVoted
	}

	vote := &domain.Vote{
		ID:        uuid.NewString(),
		PollID:    input.PollID,
		OptionID:  input.OptionID,
		VoterIP:   input.VoterIP,
		Timestamp: time.Now().UTC(),
	}

	if err := s.voteRepo.Record(ctx, vote); err != nil {
		return nil, err
	}

	return vote, nil
}

func (s *voteService) MyVote(ctx context.Context, pollID, voterIP string) (*domain.Vote, error) {
	return s.voteRepo.GetByVoter(ctx, pollID, voterIP)
}
