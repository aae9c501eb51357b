package ports

import (
	"context"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
)

type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	// GetByID returns the poll regardless of its active flag.
	GetByID(ctx context.Context, id string) (*domain.Poll, error)
	GetActiveByID(ctx context.Context, id string) (*domain.Poll, error)
	ListActive(ctx context.Context) ([]*domain.Poll, error)
	GetAll(ctx context.Context) ([]*domain.Poll, error)
	// Deactivate clears the active flag of the poll matching id. It returns
	// domain.ErrPollNotFound only when no poll has that id.
	Deactivate(ctx context.Context, id string) error
}

type OptionInput struct {
	Title       string `validate:"required"`
	Description string
}

type CreatePollInput struct {
	Title       string        `validate:"required"`
	Description string        `validate:"required"`
	Options     []OptionInput `validate:"required,min=1,dive"`
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
	Deactivate(ctx context.Context, id string) error
}
