package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
)

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration

	StoreDriver  string
	DatabaseURL  string
	SQLitePath   string
	MongoURL     string
	DatabaseName string

	RedisURL       string
	VoteRateLimit  int
	VoteRateWindow time.Duration

	CORSOrigins []string
	TrustProxy  bool
}

// LoadDotEnv reads a .env file when present. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8001"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", StorePostgres)),
		DatabaseURL:  getEnv("DATABASE_URL", postgresURLFromParts()),
		SQLitePath:   getEnv("SQLITE_PATH", "file:voting.db?_pragma=busy_timeout(5000)"),
		MongoURL:     getEnv("MONGO_URL", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "voting_app"),
		RedisURL:     os.Getenv("REDIS_URL"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.VoteRateLimit, err = getInt("VOTE_RATE_LIMIT", 30); err != nil {
		return nil, err
	}
	if cfg.VoteRateWindow, err = getDuration("VOTE_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = getBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL or POSTGRES_* variables are required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMongo:
		if c.MongoURL == "" || c.DatabaseName == "" {
			return fmt.Errorf("MONGO_URL and DATABASE_NAME are required for the mongo store")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.VoteRateLimit < 0 {
		return fmt.Errorf("VOTE_RATE_LIMIT must not be negative")
	}
	return nil
}

// postgresURLFromParts builds a connection string from the POSTGRES_* variables
// used by the docker-compose setup. It returns "" when no host is configured.
func postgresURLFromParts() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("POSTGRES_PORT", "5432"),
		os.Getenv("POSTGRES_DB"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
