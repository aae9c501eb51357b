package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/votingapp/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/services"
	apptest "github.com/vncsmyrnk/votingapp/internal/testutil"
)

type testApp struct {
	handler http.Handler
	metrics *Metrics
}

func setupTestApp(t *testing.T, limiter ratelimit.Limiter) *testApp {
	t.Helper()

	repos := apptest.NewRepositories(t)
	metrics := NewMetrics(prometheus.NewRegistry())

	pollHandler := NewPollHandler(services.NewPollService(repos.Polls), services.NewResultService(repos.Polls))
	voteHandler := NewVoteHandler(services.NewVoteService(repos.Polls, repos.Votes), metrics)
	healthHandler := NewHealthHandler(repos.Health)

	h := NewHandler(pollHandler, voteHandler, healthHandler, RouterConfig{
		CORSOrigins: []string{"*"},
		VoteLimiter: limiter,
		Metrics:     metrics,
		Logger:      zerolog.New(io.Discard),
	})
	return &testApp{handler: h, metrics: metrics}
}

func (a *testApp) do(t *testing.T, method, path string, body any, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) createPoll(t *testing.T, title string, options ...string) domain.Poll {
	t.Helper()

	opts := make([]map[string]string, 0, len(options))
	for _, o := range options {
		opts = append(opts, map[string]string{"title": o})
	}
	rec := a.do(t, http.MethodPost, "/api/polls", map[string]any{
		"title":       title,
		"description": title + " description",
		"options":     opts,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var poll domain.Poll
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&poll))
	return poll
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Detail
}

func TestCreatePoll(t *testing.T) {
	app := setupTestApp(t, nil)

	poll := app.createPoll(t, "Favorite color", "Red", "Blue")

	assert.NotEmpty(t, poll.ID)
	assert.True(t, poll.Active)
	require.Len(t, poll.Options, 2)
	for _, opt := range poll.Options {
		assert.NotEmpty(t, opt.ID)
		assert.Equal(t, "", opt.Description)
		assert.Zero(t, opt.Votes)
	}
}

func TestCreatePollValidation(t *testing.T) {
	app := setupTestApp(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"missing title", map[string]any{"description": "d", "options": []map[string]string{{"title": "A"}}}},
		{"missing options", map[string]any{"title": "t", "description": "d"}},
		{"empty options", map[string]any{"title": "t", "description": "d", "options": []map[string]string{}}},
		{"option without title", map[string]any{"title": "t", "description": "d", "options": []map[string]string{{"description": "x"}}}},
		{"malformed json", "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/polls", tt.body, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, decodeDetail(t, rec))
		})
	}
}

func TestListAndGetPolls(t *testing.T) {
	app := setupTestApp(t, nil)

	first := app.createPoll(t, "First", "A", "B")
	second := app.createPoll(t, "Second", "C", "D")

	rec := app.do(t, http.MethodGet, "/api/polls", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var polls []domain.Poll
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&polls))
	require.Len(t, polls, 2)
	assert.Equal(t, first.ID, polls[0].ID)
	assert.Equal(t, second.ID, polls[1].ID)

	rec = app.do(t, http.MethodGet, "/api/polls/"+first.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Poll
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, "A", got.Options[0].Title)

	rec = app.do(t, http.MethodGet, "/api/polls/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Poll not found", decodeDetail(t, rec))
}

func TestListPollsEmpty(t *testing.T) {
	app := setupTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/polls", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestVoteLifecycle(t *testing.T) {
	app := setupTestApp(t, nil)

	poll := app.createPoll(t, "Colors", "Red", "Blue")
	red, blue := poll.Options[0], poll.Options[1]

	rec := app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": red.ID}, "1.1.1.1:5000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var voted voteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&voted))
	assert.Equal(t, "Vote cast successfully", voted.Message)
	assert.NotEmpty(t, voted.VoteID)

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results domain.PollResults
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	assert.EqualValues(t, 1, results.TotalVotes)
	assert.Equal(t, 100.0, results.Options[0].Percentage)
	assert.Equal(t, 0.0, results.Options[1].Percentage)

	// Same address, different source port and option.
	rec = app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": blue.ID}, "1.1.1.1:6000")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "already voted")

	rec = app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": blue.ID}, "2.2.2.2:5000")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	assert.EqualValues(t, 2, results.TotalVotes)
	assert.EqualValues(t, 1, results.Options[0].Votes)
	assert.EqualValues(t, 1, results.Options[1].Votes)
	assert.Equal(t, 50.0, results.Options[0].Percentage)
	assert.Equal(t, 50.0, results.Options[1].Percentage)

	assert.Equal(t, 2.0, testutil.ToFloat64(app.metrics.VotesTotal.WithLabelValues(outcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.VotesTotal.WithLabelValues(outcomeDuplicate)))
}

func TestCastVoteErrors(t *testing.T) {
	app := setupTestApp(t, nil)
	poll := app.createPoll(t, "Errors", "Yes", "No")

	tests := []struct {
		name   string
		body   any
		status int
		detail string
	}{
		{"unknown poll", map[string]string{"poll_id": "missing", "option_id": poll.Options[0].ID}, http.StatusNotFound, "Poll not found or inactive"},
		{"unknown option", map[string]string{"poll_id": poll.ID, "option_id": "missing"}, http.StatusBadRequest, "Invalid option selected"},
		{"missing option id", map[string]string{"poll_id": poll.ID}, http.StatusUnprocessableEntity, "option_id is required"},
		{"missing poll id", map[string]string{"option_id": poll.Options[0].ID}, http.StatusUnprocessableEntity, "poll_id is required"},
		{"malformed json", "garbage", http.StatusUnprocessableEntity, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/votes", tt.body, "3.3.3.3:1000")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, decodeDetail(t, rec))
		})
	}

	rec := app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results domain.PollResults
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	assert.Zero(t, results.TotalVotes)
}

func TestDeactivatedPoll(t *testing.T) {
	app := setupTestApp(t, nil)
	poll := app.createPoll(t, "Short lived", "A", "B")

	rec := app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": poll.Options[1].ID}, "4.4.4.4:1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/polls/"+poll.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Poll deactivated successfully"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/polls", nil, "")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": poll.Options[0].ID}, "5.5.5.5:1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Poll not found or inactive", decodeDetail(t, rec))

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/results", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results domain.PollResults
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&results))
	assert.EqualValues(t, 1, results.TotalVotes)

	rec = app.do(t, http.MethodDelete, "/api/polls/"+poll.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodDelete, "/api/polls/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyVote(t *testing.T) {
	app := setupTestApp(t, nil)
	poll := app.createPoll(t, "Mine", "Yes", "No")

	rec := app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/my-vote", nil, "6.6.6.6:1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/votes", map[string]string{"poll_id": poll.ID, "option_id": poll.Options[0].ID}, "6.6.6.6:1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/my-vote", nil, "6.6.6.6:2")
	require.Equal(t, http.StatusOK, rec.Code)
	var vote domain.Vote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&vote))
	assert.Equal(t, poll.Options[0].ID, vote.OptionID)
	assert.Equal(t, "6.6.6.6", vote.VoterIP)

	rec = app.do(t, http.MethodGet, "/api/polls/"+poll.ID+"/my-vote", nil, "7.7.7.7:1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoteRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	app := setupTestApp(t, limiter)

	body := map[string]string{"poll_id": "missing", "option_id": "missing"}
	for i := 0; i < 2; i++ {
		rec := app.do(t, http.MethodPost, "/api/votes", body, "8.8.8.8:1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := app.do(t, http.MethodPost, "/api/votes", body, "8.8.8.8:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, decodeDetail(t, rec), "Too many requests")

	rec = app.do(t, http.MethodPost, "/api/votes", body, "9.9.9.9:1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Reads are never limited.
	rec = app.do(t, http.MethodGet, "/api/polls", nil, "8.8.8.8:1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	app := setupTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"voting-app-api","version":"1.0.0"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/health/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ready map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ready))
	assert.Equal(t, "healthy", ready["status"])

	rec = app.do(t, http.MethodGet, "/api/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/health")

	rec = app.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voting_http_request_duration_seconds")
}
