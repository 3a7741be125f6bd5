// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for artifacts and
// published files.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBundleActivated logs a registry change of the active bundle for a target.
func (al *AuditLogger) LogBundleActivated(target, previousKey, newKey, schemaVersion string) {
	al.WithFields(logrus.Fields{
		"target":         target,
		"previous_key":   previousKey,
		"new_key":        newKey,
		"schema_version": schemaVersion,
	}).Info("Active bundle changed")
}

// LogSnapshotPublished logs a write of the current predictions snapshot.
func (al *AuditLogger) LogSnapshotPublished(runID, path string, entries int, at time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":    runID,
		"path":      path,
		"entries":   entries,
		"timestamp": at.Unix(),
	}).Info("Predictions snapshot published")
}

// LogLastUpdate logs the pipeline completion timestamp being recorded.
func (al *AuditLogger) LogLastUpdate(store string, at time.Time) {
	al.WithFields(logrus.Fields{
		"store":     store,
		"timestamp": at.UTC().Format(time.RFC3339),
	}).Info("Last update recorded")
}
