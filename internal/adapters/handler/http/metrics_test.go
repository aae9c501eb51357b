package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCount(t *testing.T, m *Metrics, route, method, status string) uint64 {
	t.Helper()

	h, ok := m.RequestDuration.WithLabelValues(route, method, status).(prometheus.Histogram)
	require.True(t, ok)

	var pb dto.Metric
	require.NoError(t, h.Write(&pb))
	return pb.GetHistogram().GetSampleCount()
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Get("/ok/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, messageResponse{Message: "ok"})
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok/"+id, nil))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.EqualValues(t, 2, sampleCount(t, m, "/ok/{id}", http.MethodGet, "201"))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	}
	assert.EqualValues(t, 3, sampleCount(t, m, "/boom", http.MethodGet, "500"))
	assert.Zero(t, testutil.ToFloat64(m.RequestsInFlight))
}

func TestObserveVoteNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observeVote(outcomeAccepted) })
}
