package ports

import (
	"context"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
)

type TallyRepository interface {
	// Recount overwrites every option counter of the poll with the number of
	// ledger entries referencing it.
	Recount(ctx context.Context, pollID string) error
}

type ResultService interface {
	Results(ctx context.Context, pollID string) (*domain.PollResults, error)
}

type TallyService interface {
	Reconcile(ctx context.Context, pollID string) error
	ReconcileAll(ctx context.Context) error
}
