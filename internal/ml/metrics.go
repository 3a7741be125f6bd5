package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ForestFitDuration tracks how long forest fitting takes
	ForestFitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ml_forest_fit_duration_seconds",
			Help:    "Random forest fit duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// TrainingRunsTotal tracks per-target training outcomes
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_training_runs_total",
			Help: "Total number of per-target training runs",
		},
		[]string{"target", "status"}, // success, failure
	)

	// CVAccuracy tracks the latest cross-validated accuracy per target
	CVAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ml_cv_accuracy",
			Help: "Mean cross-validated accuracy of the latest trained model",
		},
		[]string{"target"},
	)

	// ValidationAccuracy tracks the latest held-out accuracy per target
	ValidationAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ml_validation_accuracy",
			Help: "Held-out accuracy of the latest trained model",
		},
		[]string{"target"},
	)

	// PredictionsTotal tracks per-target predictions
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of per-target predictions made",
		},
		[]string{"target", "status"}, // success, degraded
	)
)
