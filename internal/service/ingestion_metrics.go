package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/match-predictor/internal/metrics"
)

// IngestionMetrics tracks statistics about one fetch run
type IngestionMetrics struct {
	mu         sync.RWMutex
	kind       string
	StartTime  time.Time
	Duration   time.Duration
	Listed     int
	Saved      int
	Ignored    int
	Skipped    int
	Duplicates int
	Errors     int
}

// NewIngestionMetrics creates a new metrics tracker for kind (historical or upcoming)
func NewIngestionMetrics(kind string) *IngestionMetrics {
	return &IngestionMetrics{
		kind:      kind,
		StartTime: time.Now(),
	}
}

// RecordListed adds n matches returned by the league listings
func (m *IngestionMetrics) RecordListed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Listed += n
}

// RecordSaved increments the saved count
func (m *IngestionMetrics) RecordSaved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved++
	metrics.RecordIngested(m.kind, "saved")
}

// RecordIgnored increments the count of matches rejected for empty fields
func (m *IngestionMetrics) RecordIgnored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ignored++
	metrics.RecordIngested(m.kind, "ignored")
}

// RecordSkipped increments the count of matches not eligible (e.g. unfinished)
func (m *IngestionMetrics) RecordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped++
}

// RecordDuplicate increments duplicate count
func (m *IngestionMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
	metrics.RecordIngested(m.kind, "failed")
	metrics.RecordUpstreamError(code)
}

// Finish stamps the run duration
func (m *IngestionMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// Counters returns the counters for stage logging
func (m *IngestionMetrics) Counters() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]int{
		"listed":     m.Listed,
		"saved":      m.Saved,
		"ignored":    m.Ignored,
		"skipped":    m.Skipped,
		"duplicates": m.Duplicates,
		"errors":     m.Errors,
	}
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fmt.Sprintf(
		"IngestionMetrics{Kind=%s, Listed=%d, Saved=%d, Ignored=%d, Skipped=%d, Duplicates=%d, Errors=%d, Duration=%v}",
		m.kind,
		m.Listed,
		m.Saved,
		m.Ignored,
		m.Skipped,
		m.Duplicates,
		m.Errors,
		m.Duration,
	)
}
