package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetPrediction is the outcome of one target for one match. Class is nil
// when the target could not be predicted.
type TargetPrediction struct {
	Class      *string `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Failed reports whether the prediction degraded to null.
func (p TargetPrediction) Failed() bool {
	return p.Class == nil
}

// ClassOr returns the predicted class or fallback when it is null.
func (p TargetPrediction) ClassOr(fallback string) string {
	if p.Class == nil {
		return fallback
	}
	return *p.Class
}

// SnapshotOdds is the odds triple as published with a prediction.
type SnapshotOdds struct {
	Home Number `json:"home"`
	Draw Number `json:"draw"`
	Away Number `json:"away"`
}

// SnapshotOddsFrom converts optional provider odds.
func SnapshotOddsFrom(o *Odds) SnapshotOdds {
	if o == nil {
		return SnapshotOdds{Home: Blank(), Draw: Blank(), Away: Blank()}
	}
	return SnapshotOdds{Home: o.Home, Draw: o.Draw, Away: o.Away}
}

// PredictionResult is one upcoming match with its per-target predictions.
type PredictionResult struct {
	MatchID     int64                       `json:"match_id"`
	LeagueID    int64                       `json:"league_id"`
	League      string                      `json:"league"`
	Date        string                      `json:"date"`
	Time        string                      `json:"time"`
	HomeTeam    string                      `json:"home_team"`
	AwayTeam    string                      `json:"away_team"`
	Odds        SnapshotOdds                `json:"odds"`
	Predictions map[string]TargetPrediction `json:"predictions"`
}

// Target returns the prediction stored for t.
func (r PredictionResult) Target(t PredictionTarget) (TargetPrediction, bool) {
	p, ok := r.Predictions[t.SnapshotKey()]
	return p, ok
}

// WinnerConfidence is the ranking key of a result.
func (r PredictionResult) WinnerConfidence() float64 {
	p, _ := r.Target(TargetWinner)
	return p.Confidence
}

// HistoryEntry is a prediction appended to the history log.
type HistoryEntry struct {
	PredictionResult
	RunID       uuid.UUID `json:"run_id"`
	PredictedAt time.Time `json:"predicted_at"`
	Finished    bool      `json:"finished"`
}

// NewHistoryEntries stamps results with a run id and timestamp.
func NewHistoryEntries(results []PredictionResult, runID uuid.UUID, at time.Time) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, HistoryEntry{
			PredictionResult: r,
			RunID:            runID,
			PredictedAt:      at.UTC(),
		})
	}
	return entries
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
