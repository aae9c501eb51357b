package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/vncsmyrnk/votingapp/internal/adapters/ratelimit"
)

// requestLogger attaches log to every request context and writes one access
// line per request. Voter addresses are hashed.
func requestLogger(log zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(log),
		hlog.RequestIDHandler("request_id", "X-Request-Id"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			evt := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				evt = hlog.FromRequest(r).Error()
			} else if status >= http.StatusBadRequest {
				evt = hlog.FromRequest(r).Warn()
			}

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			evt.
				Str("method", r.Method).
				Str("route", route).
				Int("status", status).
				Int("bytes_sent", size).
				Dur("duration_ms", duration).
				Str("voter_hash", hashVoter(voterIdentity(r))).
				Msg("request")
		}),
	}
}

// rateLimit rejects requests over the limiter's budget for the caller's voter
// identity. Limiter failures let the request through.
func rateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := limiter.Allow(r.Context(), "vote:"+voterIdentity(r))
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
