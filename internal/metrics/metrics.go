// Package metrics provides Prometheus metrics for smesearch.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Search requests
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	ResultsEmitted prometheus.Counter
	ActiveSearches prometheus.Gauge

	// Upstream calls
	UpstreamCallsTotal   *prometheus.CounterVec
	UpstreamCallDuration *prometheus.HistogramVec

	// Enrichment
	EnrichmentInFlight  prometheus.Gauge
	LookupFailuresTotal *prometheus.CounterVec

	// Socket channel
	SocketConnections prometheus.Gauge
}

// New creates and registers all collectors on reg. A nil reg gets a fresh
// registry, so independent instances never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	m := &Metrics{Registry: reg}

	m.SearchesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smesearch_searches_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"},
	)

	m.SearchDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smesearch_search_duration_seconds",
			Help:    "Duration of search requests from accept to terminal event",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	m.ResultsEmitted = f.NewCounter(
		prometheus.CounterOpts{
			Name: "smesearch_results_emitted_total",
			Help: "Total number of enriched results delivered to clients",
		},
	)

	m.ActiveSearches = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "smesearch_active_searches",
			Help: "Number of search requests currently running",
		},
	)

	m.UpstreamCallsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smesearch_upstream_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"function", "status"},
	)

	m.UpstreamCallDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smesearch_upstream_call_duration_seconds",
			Help:    "Duration of upstream API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)

	m.EnrichmentInFlight = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "smesearch_enrichment_units_in_flight",
			Help: "Number of result enrichment units currently running",
		},
	)

	m.LookupFailuresTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smesearch_lookup_failures_total",
			Help: "Total number of failed dependent lookups",
		},
		[]string{"lookup"},
	)

	m.SocketConnections = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "smesearch_socket_connections",
			Help: "Number of open websocket connections",
		},
	)

	return m
}

// RecordUpstreamCall records one upstream call with its status.
func (m *Metrics) RecordUpstreamCall(function, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamCallsTotal.WithLabelValues(function, status).Inc()
	m.UpstreamCallDuration.WithLabelValues(function).Observe(duration.Seconds())
}

// RecordSearch records a finished search request.
func (m *Metrics) RecordSearch(outcome string, results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	m.ResultsEmitted.Add(float64(results))
}

// SearchStarted and SearchFinished track running searches.
func (m *Metrics) SearchStarted() {
	if m != nil {
		m.ActiveSearches.Inc()
	}
}

func (m *Metrics) SearchFinished() {
	if m != nil {
		m.ActiveSearches.Dec()
	}
}

// UnitStarted and UnitFinished track enrichment units in flight.
func (m *Metrics) UnitStarted() {
	if m != nil {
		m.EnrichmentInFlight.Inc()
	}
}

func (m *Metrics) UnitFinished() {
	if m != nil {
		m.EnrichmentInFlight.Dec()
	}
}

// LookupFailed counts a failed dependent lookup.
func (m *Metrics) LookupFailed(lookup string) {
	if m != nil {
		m.LookupFailuresTotal.WithLabelValues(lookup).Inc()
	}
}

// SocketOpened and SocketClosed track websocket connections.
func (m *Metrics) SocketOpened() {
	if m != nil {
		m.SocketConnections.Inc()
	}
}

func (m *Metrics) SocketClosed() {
	if m != nil {
		m.SocketConnections.Dec()
	}
}
