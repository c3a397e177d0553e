package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters of the fetch and analysis pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FetchAttempts *prometheus.CounterVec // labels: provider, outcome
	Results       *prometheus.CounterVec // labels: provider, kind
	RowsDropped   *prometheus.CounterVec // labels: provider
	CacheLookups  *prometheus.CounterVec // labels: result=hit|miss
	Signals       *prometheus.CounterVec // labels: strength
	Notifications *prometheus.CounterVec // labels: sink, outcome
}

// New creates the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_fetch_attempts_total",
			Help: "Provider fetch attempts by outcome",
		}, []string{"provider", "outcome"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_fetch_results_total",
			Help: "Coordinator results by kind (ok, empty, error)",
		}, []string{"provider", "kind"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_rows_dropped_total",
			Help: "Rows dropped by the normalizer",
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_cache_lookups_total",
			Help: "Series cache lookups by result",
		}, []string{"result"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_signals_total",
			Help: "Classified signals by strength",
		}, []string{"strength"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_notifications_total",
			Help: "Outgoing messages by sink and outcome",
		}, []string{"sink", "outcome"}),
	}

	m.registry.MustRegister(
		m.FetchAttempts,
		m.Results,
		m.RowsDropped,
		m.CacheLookups,
		m.Signals,
		m.Notifications,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Attempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Result(provider, kind string) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(provider, kind).Inc()
}

func (m *Metrics) Dropped(provider string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsDropped.WithLabelValues(provider).Add(float64(n))
}

func (m *Metrics) Cache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Signal(strength string) {
	if m == nil {
		return
	}
	m.Signals.WithLabelValues(strength).Inc()
}

func (m *Metrics) Notification(sink, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(sink, outcome).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
