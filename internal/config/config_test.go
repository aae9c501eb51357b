package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "STORE_DRIVER", "DATABASE_URL",
		"SQLITE_PATH", "MONGO_URL", "DATABASE_NAME", "REDIS_URL", "VOTE_RATE_LIMIT",
		"VOTE_RATE_WINDOW", "CORS_ORIGINS", "TRUST_PROXY", "POSTGRES_HOST", "POSTGRES_PORT",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "voting_app", cfg.DatabaseName)
	assert.Equal(t, 30, cfg.VoteRateLimit)
	assert.Equal(t, time.Minute, cfg.VoteRateWindow)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.TrustProxy)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_PostgresFromParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "poll")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "polls")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://poll:secret@db:5432/polls?sslmode=disable", cfg.DatabaseURL)
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "MONGO")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VOTE_RATE_LIMIT", "5")
	t.Setenv("VOTE_RATE_WINDOW", "10s")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.VoteRateLimit)
	assert.Equal(t, 10*time.Second, cfg.VoteRateWindow)
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"bad driver":   {"STORE_DRIVER", "cassandra"},
		"bad limit":    {"VOTE_RATE_LIMIT", "many"},
		"negative":     {"VOTE_RATE_LIMIT", "-1"},
		"bad window":   {"VOTE_RATE_WINDOW", "soon"},
		"bad proxy":    {"TRUST_PROXY", "maybe"},
		"bad shutdown": {"SHUTDOWN_TIMEOUT", "later"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORE_DRIVER", "sqlite")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
