package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordIngested(t *testing.T) {
	InitRegistry()
	before := value(t, IngestedRecordsTotal.WithLabelValues("historical", "saved"))

	RecordIngested("historical", "saved")
	RecordIngested("historical", "saved")

	after := value(t, IngestedRecordsTotal.WithLabelValues("historical", "saved"))
	assert.Equal(t, before+2, after)
}

func TestRecordStage(t *testing.T) {
	InitRegistry()
	ok := value(t, StageRunsTotal.WithLabelValues("train", "success"))
	failed := value(t, StageRunsTotal.WithLabelValues("train", "failure"))

	RecordStage("train", time.Now(), nil)
	RecordStage("train", time.Now(), errors.New("boom"))

	assert.Equal(t, ok+1, value(t, StageRunsTotal.WithLabelValues("train", "success")))
	assert.Equal(t, failed+1, value(t, StageRunsTotal.WithLabelValues("train", "failure")))
}

func TestGauges(t *testing.T) {
	InitRegistry()

	at := time.Date(2024, 3, 18, 3, 0, 0, 0, time.UTC)
	UpdateLastUpdate(at)
	assert.Equal(t, float64(at.Unix()), value(t, LastUpdateTimestamp))

	UpdateResultsAccuracy("winner", 61.54)
	assert.Equal(t, 61.54, value(t, ResultsAccuracy.WithLabelValues("winner")))

	UpdateSnapshotEntries(6)
	assert.Equal(t, 6.0, value(t, SnapshotEntries))
}

func TestHandlerExposesMetrics(t *testing.T) {
	InitRegistry()
	RecordAPIRequest("/predictions", "200", 0.01)
	RecordSnapshotCache(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "match_predictor_api_requests_total"))
	assert.True(t, strings.Contains(body, "match_predictor_snapshot_cache_lookups_total"))
}

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}
