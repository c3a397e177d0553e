package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Attempt("yahoo", "error")
	m.Attempt("yahoo", "error")
	m.Result("yahoo", "ok")
	m.Dropped("alphavantage", 2)
	m.Dropped("alphavantage", 0)
	m.Cache(true)
	m.Cache(false)
	m.Signal("Strong")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("alphavantage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signals.WithLabelValues("Strong")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Attempt("yahoo", "ok")
		m.Result("yahoo", "ok")
		m.Dropped("yahoo", 3)
		m.Cache(true)
		m.Signal("Weak")
		m.Notification("log", "ok")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.Signal("Weak")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketpulse_signals_total{strength="Weak"} 1`)
}
