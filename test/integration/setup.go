package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"

	handler "github.com/vncsmyrnk/votingapp/internal/adapters/handler/http"
	"github.com/vncsmyrnk/votingapp/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/mongostore"
	"github.com/vncsmyrnk/votingapp/internal/adapters/repository/sqlstore"
	"github.com/vncsmyrnk/votingapp/internal/core/domain"
	"github.com/vncsmyrnk/votingapp/internal/core/ports"
	"github.com/vncsmyrnk/votingapp/internal/core/services"
)

const (
	storePostgres = "postgres"
	storeMongo    = "mongo"

	mongoDatabase = "voting_app_test"
)

var stores = []string{storePostgres, storeMongo}

type TestApp struct {
	Server   *httptest.Server
	Client   *http.Client
	Polls    ports.PollRepository
	Votes    ports.VoteRepository
	TallySvc ports.TallyService

	// Exactly one of these is set, depending on the store.
	DB    *sql.DB
	Mongo *mongo.Database

	teardown []func()
}

func (a *TestApp) Teardown(t *testing.T) {
	t.Helper()
	a.Server.Close()
	for i := len(a.teardown) - 1; i >= 0; i-- {
		a.teardown[i]()
	}
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}
	return pgContainer, connStr, nil
}

func setupMongoContainer(ctx context.Context) (testcontainers.Container, string, error) {
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, "", fmt.Errorf("failed to start mongo container: %w", err)
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", err
	}
	return mongoContainer, uri, nil
}

func setupRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, "", fmt.Errorf("failed to start redis container: %w", err)
	}

	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", err
	}
	return redisContainer, uri, nil
}

// setupTestApp serves the full router against a fresh container of the given
// store. Clients pick their voter address with X-Forwarded-For.
func setupTestApp(t *testing.T, store string, limiter ratelimit.Limiter) *TestApp {
	t.Helper()
	ctx := context.Background()
	app := &TestApp{}

	var repos *repository.Repositories

	switch store {
	case storePostgres:
		container, dbURL, err := setupPostgresContainer(ctx)
		require.NoError(t, err)
		app.teardown = append(app.teardown, func() { _ = container.Terminate(context.Background()) })

		db, err := sqlstore.Open(ctx, sqlstore.Postgres, dbURL)
		require.NoError(t, err)
		require.NoError(t, sqlstore.EnsureSchema(ctx, db, sqlstore.Postgres))

		app.DB = db
		repos = repository.NewSQL(db, sqlstore.Postgres)
	case storeMongo:
		container, uri, err := setupMongoContainer(ctx)
		require.NoError(t, err)
		app.teardown = append(app.teardown, func() { _ = container.Terminate(context.Background()) })

		repos, err = repository.OpenMongo(ctx, uri, mongoDatabase)
		require.NoError(t, err)

		// A second client lets tests reach the collections directly.
		client, err := mongostore.Connect(ctx, uri)
		require.NoError(t, err)
		app.teardown = append(app.teardown, func() { _ = client.Disconnect(context.Background()) })
		app.Mongo = client.Database(mongoDatabase)
	default:
		t.Fatalf("unknown store %q", store)
	}
	app.teardown = append(app.teardown, func() { _ = repos.Close(context.Background()) })

	app.Polls = repos.Polls
	app.Votes = repos.Votes

	pollSvc := services.NewPollService(app.Polls)
	voteSvc := services.NewVoteService(app.Polls, app.Votes)
	resultSvc := services.NewResultService(app.Polls)
	app.TallySvc = services.NewTallyService(repos.Polls, repos.Tallies)

	router := handler.NewHandler(
		handler.NewPollHandler(pollSvc, resultSvc),
		handler.NewVoteHandler(voteSvc, handler.NewMetrics(prometheus.NewRegistry())),
		handler.NewHealthHandler(repos.Health),
		handler.RouterConfig{
			CORSOrigins: []string{"*"},
			TrustProxy:  true,
			VoteLimiter: limiter,
			Logger:      zerolog.New(io.Discard),
		},
	)

	app.Server = httptest.NewServer(router)
	app.Client = app.Server.Client()
	return app
}

func (a *TestApp) request(t *testing.T, method, path, voterIP string, body any) *http.Response {
	t.Helper()

	resp, err := a.send(method, path, voterIP, body)
	require.NoError(t, err)
	return resp
}

// send performs the request without touching t, so it is safe to call from
// worker goroutines.
func (a *TestApp) send(method, path, voterIP string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.Server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if voterIP != "" {
		req.Header.Set("X-Forwarded-For", voterIP)
	}
	return a.Client.Do(req)
}

func (a *TestApp) createPoll(t *testing.T, title string, options ...string) domain.Poll {
	t.Helper()

	opts := make([]map[string]string, 0, len(options))
	for _, o := range options {
		opts = append(opts, map[string]string{"title": o})
	}
	resp := a.request(t, http.MethodPost, "/api/polls", "", map[string]any{
		"title":       title,
		"description": title,
		"options":     opts,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var poll domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&poll))
	return poll
}

func (a *TestApp) vote(t *testing.T, pollID, optionID, voterIP string) int {
	t.Helper()

	status, err := a.tryVote(pollID, optionID, voterIP)
	require.NoError(t, err)
	return status
}

func (a *TestApp) tryVote(pollID, optionID, voterIP string) (int, error) {
	resp, err := a.send(http.MethodPost, "/api/votes", voterIP, map[string]string{
		"poll_id":   pollID,
		"option_id": optionID,
	})
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (a *TestApp) results(t *testing.T, pollID string) domain.PollResults {
	t.Helper()

	resp := a.request(t, http.MethodGet, "/api/polls/"+pollID+"/results", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results domain.PollResults
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	return results
}
