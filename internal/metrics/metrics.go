// Package metrics provides centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	IngestedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "ingested_records_total",
		Help:      "Total number of fetched matches by outcome (saved, ignored, failed)",
	}, []string{"kind", "outcome"})
	UpstreamErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "upstream_errors_total",
		Help:      "Total number of failed upstream calls by error code",
	}, []string{"code"})
	StageRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "stage_runs_total",
		Help:      "Total number of pipeline stage runs by stage and status",
	}, []string{"stage", "status"})
	ValidationIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "validation_issues_total",
		Help:      "Total number of corpus validation issues by severity",
	}, []string{"severity"})
)

// Gauge metrics
var (
	LastUpdateTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "match_predictor",
		Name:      "last_update_timestamp_seconds",
		Help:      "Unix time of the last completed pipeline run",
	})
	ResultsAccuracy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "match_predictor",
		Name:      "results_accuracy_percent",
		Help:      "Accuracy of past predictions per target, as computed by check-results",
	}, []string{"target"})
	SnapshotEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "match_predictor",
		Name:      "snapshot_entries",
		Help:      "Number of matches in the current prediction snapshot",
	})
)

// Histogram metrics
var (
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "match_predictor",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages in seconds",
		Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 300, 600, 1800},
	}, []string{"stage"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(IngestedRecordsTotal)
		registry.MustRegister(UpstreamErrorsTotal)
		registry.MustRegister(StageRunsTotal)
		registry.MustRegister(ValidationIssuesTotal)

		// Register gauge metrics
		registry.MustRegister(LastUpdateTimestamp)
		registry.MustRegister(ResultsAccuracy)
		registry.MustRegister(SnapshotEntries)

		// Register histogram metrics
		registry.MustRegister(StageDuration)

		// Register API metrics
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(APIRequestDuration)
		registry.MustRegister(SnapshotCacheHitsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler. It also exposes the default
// gatherer, where the ml package registers its metrics.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordIngested records the outcome of one fetched match.
func RecordIngested(kind, outcome string) {
	IngestedRecordsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordUpstreamError records a failed upstream call.
func RecordUpstreamError(code string) {
	UpstreamErrorsTotal.WithLabelValues(code).Inc()
}

// RecordStage records a finished pipeline stage.
func RecordStage(stage string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	StageRunsTotal.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RecordValidationIssues records the issue counts of a validation run.
func RecordValidationIssues(errors, warnings int) {
	ValidationIssuesTotal.WithLabelValues("error").Add(float64(errors))
	ValidationIssuesTotal.WithLabelValues("warning").Add(float64(warnings))
}

// UpdateLastUpdate updates the last update gauge.
func UpdateLastUpdate(at time.Time) {
	LastUpdateTimestamp.Set(float64(at.Unix()))
}

// UpdateResultsAccuracy updates the accuracy gauge of a target.
func UpdateResultsAccuracy(target string, percent float64) {
	ResultsAccuracy.WithLabelValues(target).Set(percent)
}

// UpdateSnapshotEntries updates the snapshot size gauge.
func UpdateSnapshotEntries(n int) {
	SnapshotEntries.Set(float64(n))
}
