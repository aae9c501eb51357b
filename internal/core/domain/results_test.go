package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollWithVotes(votes ...int64) *Poll {
	poll := &Poll{ID: "p1", Title: "Colors", Description: "Pick one", Active: true}
	for i, v := range votes {
		poll.Options = append(poll.Options, PollOption{
			ID:    string(rune('a' + i)),
			Title: string(rune('A' + i)),
			Votes: v,
		})
	}
	return poll
}

func TestComputeResults_NoVotes(t *testing.T) {
	results := ComputeResults(pollWithVotes(0, 0, 0))

	assert.Equal(t, int64(0), results.TotalVotes)
	require.Len(t, results.Options, 3)
	for _, opt := range results.Options {
		assert.Equal(t, 0.0, opt.Percentage)
	}
}

func TestComputeResults_SplitEvenly(t *testing.T) {
	results := ComputeResults(pollWithVotes(1, 1))

	assert.Equal(t, int64(2), results.TotalVotes)
	assert.Equal(t, 50.0, results.Options[0].Percentage)
	assert.Equal(t, 50.0, results.Options[1].Percentage)
}

func TestComputeResults_RoundsToTwoDecimals(t *testing.T) {
	results := ComputeResults(pollWithVotes(1, 1, 1))

	var sum float64
	for _, opt := range results.Options {
		assert.Equal(t, 33.33, opt.Percentage)
		sum += opt.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestComputeResults_PreservesOptionOrder(t *testing.T) {
	poll := pollWithVotes(3, 0, 7)
	results := ComputeResults(poll)

	assert.Equal(t, "p1", results.PollID)
	assert.Equal(t, "Colors", results.Title)
	assert.Equal(t, "Pick one", results.Description)
	for i, opt := range results.Options {
		assert.Equal(t, poll.Options[i].ID, opt.ID)
		assert.Equal(t, poll.Options[i].Votes, opt.Votes)
	}
	assert.Equal(t, 30.0, results.Options[0].Percentage)
	assert.Equal(t, 70.0, results.Options[2].Percentage)
}

func TestPollOption_MatchesByID(t *testing.T) {
	poll := pollWithVotes(0, 0)

	opt, ok := poll.Option("b")
	require.True(t, ok)
	assert.Equal(t, "B", opt.Title)

	_, ok = poll.Option("z")
	assert.False(t, ok)
}
