package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/internal/metrics"
	"github.com/ellisd4/tagsync/pkg/differ"
	"github.com/ellisd4/tagsync/pkg/reconciler"
)

func newMetrics(t *testing.T) (*metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return metrics.New(reg, reg), reg
}

// value returns the sample of the named family whose labels include all of want.
func value(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metric:
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, want)
	return 0
}

func finished(summary reconciler.Summary) *reconciler.Result {
	start := utc.Now()
	return &reconciler.Result{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Summary:    summary,
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeSuccess, metrics.Outcome(finished(reconciler.Summary{}), nil))
	assert.Equal(t, metrics.OutcomePartial, metrics.Outcome(finished(reconciler.Summary{Failed: 1}), nil))
	assert.Equal(t, metrics.OutcomeFailed, metrics.Outcome(nil, errors.New("boom")))
	assert.Equal(t, metrics.OutcomeCanceled, metrics.Outcome(&reconciler.Result{Canceled: true}, errors.New("canceled")))
}

func TestRecordRun(t *testing.T) {
	m, reg := newMetrics(t)

	m.RecordRun(finished(reconciler.Summary{Matched: 7}), nil)
	m.RecordRun(nil, errors.New("sonarr down"))

	assert.Equal(t, 1.0, value(t, reg, "tagsync_runs_total", map[string]string{"outcome": "success", "dry_run": "false"}))
	assert.Equal(t, 1.0, value(t, reg, "tagsync_runs_total", map[string]string{"outcome": "failed"}))
	assert.Equal(t, 7.0, value(t, reg, "tagsync_matched_items", nil))
	assert.Equal(t, 1.0, value(t, reg, "tagsync_run_duration_seconds", nil))
}

func TestRecordOperation(t *testing.T) {
	m, reg := newMetrics(t)

	add := reconciler.AppliedOperation{Operation: differ.Operation{Kind: differ.ChangeTypeAdd, Label: "x"}, Status: reconciler.StatusApplied}
	m.RecordOperation(add)
	m.RecordOperation(add)
	m.RecordOperation(reconciler.AppliedOperation{Operation: differ.Operation{Kind: differ.ChangeTypeRemove}, Status: reconciler.StatusFailed})

	assert.Equal(t, 2.0, value(t, reg, "tagsync_tag_operations_total", map[string]string{"kind": "add", "status": "applied"}))
	assert.Equal(t, 1.0, value(t, reg, "tagsync_tag_operations_total", map[string]string{"kind": "remove", "status": "failed"}))
}

func TestHandler(t *testing.T) {
	m, _ := newMetrics(t)
	m.RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `tagsync_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, metrics.Default(), metrics.Default())
}
