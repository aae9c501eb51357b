package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type tallyService struct {
	pollRepo  ports.PollRepository
	tallyRepo ports.TallyRepository
}

func NewTallyService(pollRepo ports.PollRepository, tallyRepo ports.TallyRepository) ports.TallyService {
	return &tallyService{
		pollRepo:  pollRepo,
		tallyRepo: tallyRepo,
	}
}

func (s *tallyService) Reconcile(ctx context.Context, pollID string) error {
	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		return err
	}
	return s.tallyRepo.Recount(ctx, pollID)
}

// ReconcileAll recounts every poll, active or not, from the vote ledger.
// It is meant to run while no votes are in flight.
func (s *tallyService) ReconcileAll(ctx context.Context) error {
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch all polls: %w", err)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(polls))

	for _, poll := range polls {
		wg.Add(1)
		go func(pollID string) {
			defer wg.Done()
			if err := s.tallyRepo.Recount(ctx, pollID); err != nil {
				errChan <- fmt.Errorf("failed to reconcile poll %s: %w", pollID, err)
			}
		}(poll.ID)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	return nil
}
