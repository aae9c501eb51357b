package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/votingapp/internal/adapters/repository"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

// NewRepositories returns repositories backed by a private in-memory SQLite
// database with the full schema applied.
func NewRepositories(t *testing.T) *repository.Repositories {
	t.Helper()

	repos, err := repository.OpenSQL(context.Background(), sqlstore.SQLite, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repos.Close(context.Background())
	})
	return repos
}

// CreatePoll stores a poll with one option per title through the poll service.
func CreatePoll(t *testing.T, svc ports.PollService, title string, optionTitles ...string) string {
	t.Helper()

	input := ports.CreatePollInput{
		Title:       title,
		Description: title + " description",
	}
	for _, opt := range optionTitles {
		input.Options = append(input.Options, ports.OptionInput{Title: opt})
	}

	poll, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	return poll.ID
}
