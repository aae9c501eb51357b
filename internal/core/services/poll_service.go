package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

type pollService struct {
	repo     ports.PollRepository
	validate *validator.Validate
}

func NewPollService(repo ports.PollRepository) ports.PollService {
	return &pollService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	poll := &domain.Poll{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
		Active:      true,
	}

	for _, opt := range input.Options {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:          uuid.NewString(),
			Title:       opt.Title,
			Description: opt.Description,
		})
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	return s.repo.GetActiveByID(ctx, id)
}

func (s *pollService) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	polls, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}
	return polls, nil
}

func (s *pollService) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

// validationError flattens validator output into a single domain error,
// e.g. "validation failed: title is required; options[0].title is required".
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// fieldPath turns "CreatePollInput.Options[0].Title" into "options[0].title".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
