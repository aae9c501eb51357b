package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter applies a fixed-window limit per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(limit, count int, resetAt time.Time) Decision {
	return Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
}
