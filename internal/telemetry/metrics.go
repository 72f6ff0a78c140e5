// Package telemetry provides Prometheus metrics for the watcher loop and an
// optional HTTP endpoint that exposes them.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Watcher  *WatcherMetrics
}

// NewMetrics creates a new instance of Metrics with all collectors
// registered on a private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	watcherMetrics, err := NewWatcherMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Watcher:  watcherMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
}

// WatcherMetrics contains Prometheus metrics for the report watcher loop.
type WatcherMetrics struct {
	reportsSeenTotal      prometheus.Counter
	reportsNewTotal       *prometheus.CounterVec
	reportsDuplicateTotal prometheus.Counter
	reportFailuresTotal   *prometheus.CounterVec
	dispatchDuration      prometheus.Histogram
}

// NewWatcherMetrics creates and registers the watcher metrics.
func NewWatcherMetrics(registry *prometheus.Registry) (*WatcherMetrics, error) {
	m := &WatcherMetrics{
		reportsSeenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modwatch_reports_seen_total",
			Help: "Total number of reports observed in the feed",
		}),
		reportsNewTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modwatch_reports_new_total",
			Help: "Total number of new reports persisted",
		}, []string{"kind"}),
		reportsDuplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modwatch_reports_duplicate_total",
			Help: "Total number of reports skipped as already seen",
		}),
		reportFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modwatch_report_failures_total",
			Help: "Total number of per-report processing failures",
		}, []string{"stage"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "modwatch_dispatch_duration_seconds",
			Help:    "Webhook dispatch latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.reportsSeenTotal,
		m.reportsNewTotal,
		m.reportsDuplicateTotal,
		m.reportFailuresTotal,
		m.dispatchDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// RecordSeen increments the seen report counter.
func (m *WatcherMetrics) RecordSeen() {
	if m == nil {
		return
	}
	m.reportsSeenTotal.Inc()
}

// RecordNew increments the new report counter for the given content kind.
func (m *WatcherMetrics) RecordNew(kind string) {
	if m == nil {
		return
	}
	m.reportsNewTotal.WithLabelValues(kind).Inc()
}

// RecordDuplicate increments the duplicate report counter.
func (m *WatcherMetrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.reportsDuplicateTotal.Inc()
}

// RecordFailure increments the failure counter for the given stage
// ("store", "render" or "dispatch").
func (m *WatcherMetrics) RecordFailure(stage string) {
	if m == nil {
		return
	}
	m.reportFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordDispatchDuration records webhook dispatch latency.
func (m *WatcherMetrics) RecordDispatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(seconds)
}
