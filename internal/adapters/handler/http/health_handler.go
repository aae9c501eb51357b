package http

import (
	"context"
	"net/http"
	"time"

	"github.com/vncsmyrnk/votingapp/internal/core/ports"
)

const (
	serviceName    = "voting-app-api"
	serviceVersion = "1.0.0"
)

type HealthHandler struct {
	store   ports.HealthChecker
	startAt time.Time
}

func NewHealthHandler(store ports.HealthChecker) *HealthHandler {
	return &HealthHandler{
		store:   store,
		startAt: time.Now(),
	}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Voting App API",
		"docs":    "/docs",
		"health":  "/api/health",
	})
}

// Live is a liveness probe; it never touches the store.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	check := map[string]any{
		"status":     "up",
		"latency_ms": time.Since(start).Milliseconds(),
	}

	status := http.StatusOK
	overall := "healthy"
	if err != nil {
		check["status"] = "down"
		check["error"] = "connection failed"
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":         overall,
		"checks":         map[string]any{"store": check},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        serviceVersion,
	})
}
