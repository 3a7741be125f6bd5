package metrics

import "github.com/prometheus/client_golang/prometheus"

// API counter vectors
var (
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "api_requests_total",
		Help:      "Total number of read API requests by route and status code",
	}, []string{"route", "code"})
	SnapshotCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_predictor",
		Name:      "snapshot_cache_lookups_total",
		Help:      "Snapshot cache lookups by result (hit, miss)",
	}, []string{"result"})
)

// API histogram vectors
var (
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "match_predictor",
		Name:      "api_request_duration_seconds",
		Help:      "Duration of read API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(route, code string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(route, code).Inc()
	APIRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}

// RecordSnapshotCache records a snapshot cache lookup.
func RecordSnapshotCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SnapshotCacheHitsTotal.WithLabelValues(result).Inc()
}
