package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("debug", buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLoggerWithOutput("shouting", buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestNewLoggerProductionFormat(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	log := NewLoggerWithOutput("info", &bytes.Buffer{})
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestPipelineLoggerStageCounters(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogStageCounters("preprocess", map[string]int{"rows": 120, "dropped_goals": 3})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pipeline", logEntry["component"])
	assert.Equal(t, "preprocess", logEntry["stage"])
	assert.Equal(t, float64(120), logEntry["rows"])
	assert.Equal(t, float64(3), logEntry["dropped_goals"])
}

func TestPipelineLoggerTrainingMetrics(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogTrainingMetrics("BTTS", 0.61, 0.04, 0.9, 0.58, false, "BTTS-20240301T120000Z-abcd")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "BTTS", logEntry["target"])
	assert.Equal(t, false, logEntry["stratified"])
	assert.Equal(t, 0.58, logEntry["validation_accuracy"])
}

func TestPipelineLoggerBundleLoadError(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogBundleLoad("Winner", "Winner-x", errors.New("hash mismatch"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "hash mismatch", logEntry["error"])
}

func TestPipelineLoggerDataQuality(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogDataQuality("training", "stratification disabled", logrus.Fields{"target": "BTTS"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "BTTS", logEntry["target"])
}

func TestAuditLoggerBundleActivated(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogBundleActivated("Winner", "", "Winner-new", "abc123")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "Winner-new", logEntry["new_key"])
}

func TestAuditLoggerLastUpdate(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogLastUpdate("redis", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2024-03-01T12:00:00Z", logEntry["timestamp"])
}

func BenchmarkPipelineLoggerStageCounters(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	pipelineLogger := NewPipelineLogger(log)

	for i := 0; i < b.N; i++ {
		pipelineLogger.LogStageCounters("ingestion", map[string]int{"saved": 10, "ignored": 2})
	}
}
