package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

const SamplePollID = "sample-poll-001"

func samplePoll() *domain.Poll {
	return &domain.Poll{
		ID:          SamplePollID,
		Title:       "What's your favorite programming language?",
		Description: "Vote for your preferred programming language for backend development",
		Options: []domain.PollOption{
			{ID: "option-001", Title: "Python", Description: "Great for data science and web development"},
			{ID: "option-002", Title: "JavaScript", Description: "Full-stack development with Node.js"},
			{ID: "option-003", Title: "Java", Description: "Enterprise-grade applications"},
			{ID: "option-004", Title: "Go", Description: "Fast and efficient for microservices"},
		},
		CreatedAt: time.Now().UTC(),
		Active:    true,
	}
}

// SeedSamplePoll stores the demo poll unless a poll with its id already
// exists. It reports whether anything was written.
func SeedSamplePoll(ctx context.Context, polls ports.PollRepository) (bool, error) {
	_, err := polls.GetByID(ctx, SamplePollID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrPollNotFound) {
		return false, err
	}

	if err := polls.Save(ctx, samplePoll()); err != nil {
		return false, err
	}
	return true, nil
}
