// Package metrics exposes Prometheus instrumentation for sync runs and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ellisd4/tagsync/pkg/reconciler"
)

const namespace = "tagsync"

// Run outcomes used for the runs_total outcome label.
const (
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Metrics holds the collectors. The zero value is not usable; use New or Default.
type Metrics struct {
	runs         *prometheus.CounterVec
	operations   *prometheus.CounterVec
	runDuration  prometheus.Histogram
	matched      prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	gatherer     prometheus.Gatherer
}

var (
	registerOnce sync.Once
	defaultSet   *Metrics
)

// Default returns the process-wide metrics registered with the default
// Prometheus registry.
func Default() *Metrics {
	registerOnce.Do(func() {
		defaultSet = New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return defaultSet
}

// New creates and registers a metrics set on reg.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total sync runs by outcome.",
			},
			[]string{"outcome", "dry_run"},
		),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tag_operations_total",
				Help:      "Tag operations by kind and status.",
			},
			[]string{"kind", "status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Sync run duration in seconds.",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900},
			},
		),
		matched: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "matched_items",
				Help:      "Source records matched to a target item in the last run.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		gatherer: gatherer,
	}
	reg.MustRegister(m.runs, m.operations, m.runDuration, m.matched, m.httpRequests, m.httpDuration)
	return m
}

// Outcome classifies a finished run.
func Outcome(result *reconciler.Result, err error) string {
	switch {
	case result != nil && result.Canceled:
		return OutcomeCanceled
	case err != nil || result == nil:
		return OutcomeFailed
	case result.Summary.Failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// RecordRun records a finished run. result may be nil when the run failed
// before planning.
func (m *Metrics) RecordRun(result *reconciler.Result, err error) {
	dryRun := result != nil && result.DryRun
	m.runs.WithLabelValues(Outcome(result, err), strconv.FormatBool(dryRun)).Inc()
	if result == nil {
		return
	}
	m.runDuration.Observe(result.Duration().Seconds())
	m.matched.Set(float64(result.Summary.Matched))
}

// RecordOperation counts one tag operation.
func (m *Metrics) RecordOperation(op reconciler.AppliedOperation) {
	m.operations.WithLabelValues(string(op.Kind), string(op.Status)).Inc()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
