package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote outcomes recorded by VotesTotal.
const (
	outcomeAccepted      = "accepted"
	outcomeDuplicate     = "duplicate"
	outcomeInvalidOption = "invalid_option"
	outcomeNotFound      = "not_found"
	outcomeRejected      = "rejected"
	outcomeError         = "error"
)

type Metrics struct {
	VotesTotal       *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so collectors never clash.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		VotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voting_votes_total",
				Help: "Vote attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voting_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voting_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.VotesTotal, m.RequestDuration, m.RequestsInFlight)
	return m
}

func (m *Metrics) observeVote(outcome string) {
	if m == nil {
		return
	}
	m.VotesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware labels requests with the matched route pattern rather than the
// raw path to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.RequestsInFlight.Inc()
		start := time.Now()

		// Panics are counted as 500 and re-raised for the recoverer.
		defer func() {
			status := ww.Status()
			p := recover()
			if p != nil {
				status = http.StatusInternalServerError
			} else if status == 0 {
				status = http.StatusOK
			}

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
			m.RequestsInFlight.Dec()

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
