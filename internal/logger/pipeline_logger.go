// Package logger provides pipeline-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for the batch pipeline stages.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogStageCounters logs the aggregate counters at the end of a stage.
func (pl *PipelineLogger) LogStageCounters(stage string, counters map[string]int) {
	fields := logrus.Fields{"stage": stage}
	for k, v := range counters {
		fields[k] = v
	}
	pl.WithFields(fields).Info("Stage completed")
}

// LogDataQuality logs a degraded but non-fatal data condition.
func (pl *PipelineLogger) LogDataQuality(stage, issue string, fields logrus.Fields) {
	entry := pl.WithFields(logrus.Fields{
		"stage": stage,
		"issue": issue,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn("Data quality issue")
}

// LogTrainingMetrics logs the evaluation of one target.
func (pl *PipelineLogger) LogTrainingMetrics(target string, cvMean, cvStd, trainAccuracy, validationAccuracy float64, stratified bool, bundleKey string) {
	pl.WithFields(logrus.Fields{
		"target":              target,
		"cv_mean":             cvMean,
		"cv_std":              cvStd,
		"train_accuracy":      trainAccuracy,
		"validation_accuracy": validationAccuracy,
		"stratified":          stratified,
		"bundle_key":          bundleKey,
	}).Info("Target model trained")
}

// LogBundleLoad logs the outcome of loading one target's bundle.
func (pl *PipelineLogger) LogBundleLoad(target, key string, err error) {
	entry := pl.WithFields(logrus.Fields{
		"target":     target,
		"bundle_key": key,
	})
	if err != nil {
		entry.WithError(err).Error("Bundle unavailable, target degraded")
		return
	}
	entry.Info("Bundle loaded")
}

// LogPredictionFailure logs a per-target prediction failure.
func (pl *PipelineLogger) LogPredictionFailure(target string, err error) {
	pl.WithFields(logrus.Fields{
		"target": target,
	}).WithError(err).Error("Prediction failed for target")
}

// LogPredictionRun logs a completed prediction run.
func (pl *PipelineLogger) LogPredictionRun(runID string, upcoming, published int, degradedTargets []string) {
	pl.WithFields(logrus.Fields{
		"run_id":           runID,
		"upcoming_matches": upcoming,
		"published":        published,
		"degraded_targets": degradedTargets,
	}).Info("Prediction run completed")
}
