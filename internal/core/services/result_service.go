package services

import (
	"context"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type resultService struct {
	pollRepo ports.PollRepository
}

func NewResultService(pollRepo ports.PollRepository) ports.ResultService {
	return &resultService{pollRepo: pollRepo}
}

// Results is served for deactivated polls too; only the poll itself is
// hidden by deactivation.
func (s *resultService) Results(ctx context.Context, pollID string) (*domain.PollResults, error) {
	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	return domain.ComputeResults(poll), nil
}
