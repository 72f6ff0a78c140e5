package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	metrics, err := NewMetrics()
	require.NoError(t, err)

	metrics.Watcher.RecordSeen()
	metrics.Watcher.RecordSeen()
	metrics.Watcher.RecordNew("submission")
	metrics.Watcher.RecordDuplicate()
	metrics.Watcher.RecordFailure("dispatch")
	metrics.Watcher.RecordDispatchDuration(0.05)

	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)

	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "modwatch_reports_seen_total 2")
	assert.Contains(t, text, `modwatch_reports_new_total{kind="submission"} 1`)
	assert.Contains(t, text, "modwatch_reports_duplicate_total 1")
	assert.Contains(t, text, `modwatch_report_failures_total{stage="dispatch"} 1`)
	assert.Contains(t, text, "modwatch_dispatch_duration_seconds_count 1")
}

func TestNilWatcherMetricsSafe(t *testing.T) {
	var m *WatcherMetrics
	assert.NotPanics(t, func() {
		m.RecordSeen()
		m.RecordNew("comment")
		m.RecordDuplicate()
		m.RecordFailure("store")
		m.RecordDispatchDuration(1)
	})
}
