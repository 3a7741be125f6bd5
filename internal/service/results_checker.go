package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/metrics"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

const stageCheckResults = "check_results"

// StatsTargets are the targets scored by check-results, in report order.
var StatsTargets = []models.PredictionTarget{
	models.TargetWinner,
	models.TargetOver25,
	models.TargetOver15,
	models.TargetDoubleChance,
	models.TargetBTTS,
}

// TargetStats is the hit rate of one target.
type TargetStats struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// PredictionStats is the accuracy report. It is written as a flat object of
// per-target entries plus a best_type key.
type PredictionStats struct {
	Targets  map[string]TargetStats
	BestType string
}

// MarshalJSON implements json.Marshaler.
func (s PredictionStats) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Targets)+1)
	for k, v := range s.Targets {
		out[k] = v
	}
	out["best_type"] = s.BestType
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *PredictionStats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Targets = make(map[string]TargetStats, len(raw))
	s.BestType = ""
	for k, v := range raw {
		if k == "best_type" {
			if err := json.Unmarshal(v, &s.BestType); err != nil {
				return fmt.Errorf("best_type: %w", err)
			}
			continue
		}
		var ts TargetStats
		if err := json.Unmarshal(v, &ts); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		s.Targets[k] = ts
	}
	return nil
}

// CheckSummary reports what a check-results run did.
type CheckSummary struct {
	Entries    int
	Finished   int
	Unfinished int
	Stats      PredictionStats
}

// ResultsChecker scores the prediction history against the corpus
type ResultsChecker struct {
	corpusPath string
	statsPath  string
	files      storage.PredictionFiles
	log        *logger.PipelineLogger
}

// NewResultsChecker creates a new results checker
func NewResultsChecker(corpusPath, statsPath string, files storage.PredictionFiles, pipelineLog *logger.PipelineLogger) *ResultsChecker {
	return &ResultsChecker{
		corpusPath: corpusPath,
		statsPath:  statsPath,
		files:      files,
		log:        pipelineLog,
	}
}

// Check joins history entries with corpus matches by match id, marks the
// joined entries finished, rewrites the history and writes the stats file.
func (c *ResultsChecker) Check() (*CheckSummary, error) {
	history, err := c.files.LoadHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction history: %w", err)
	}
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	matches, err := storage.LoadMatches(c.corpusPath)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		c.log.LogDataQuality(stageCheckResults, "corpus missing", nil)
	}
	byID := make(map[int64]models.MatchRecord, len(matches))
	for _, m := range matches {
		if m.MatchID != 0 {
			byID[m.MatchID] = m
		}
	}

	summary := &CheckSummary{Entries: len(history)}
	correct := make(map[models.PredictionTarget]int, len(StatsTargets))
	total := make(map[models.PredictionTarget]int, len(StatsTargets))

	for i := range history {
		entry := &history[i]
		match, ok := byID[entry.MatchID]
		if !ok {
			entry.Finished = false
			summary.Unfinished++
			continue
		}
		entry.Finished = true
		summary.Finished++
		if !match.HasOutcome() {
			continue
		}

		home, away := match.Team1Goals.Float(), match.Team2Goals.Float()
		for _, target := range StatsTargets {
			pred, ok := entry.Target(target)
			if !ok || pred.Failed() {
				continue
			}
			total[target]++
			if Hit(target, *pred.Class, home, away) {
				correct[target]++
			}
		}
	}

	summary.Stats = buildStats(correct, total)

	if err := c.files.SaveHistory(history); err != nil {
		return nil, fmt.Errorf("failed to write prediction history: %w", err)
	}
	if err := storage.WriteJSON(c.statsPath, summary.Stats); err != nil {
		return nil, fmt.Errorf("failed to write prediction stats: %w", err)
	}

	for k, v := range summary.Stats.Targets {
		metrics.UpdateResultsAccuracy(k, v.Percent)
	}
	c.log.LogStageCounters(stageCheckResults, map[string]int{
		"entries":    summary.Entries,
		"finished":   summary.Finished,
		"unfinished": summary.Unfinished,
	})
	return summary, nil
}

// Hit reports whether class was a correct prediction of target for the given
// final score. A double chance prediction is correct when either of its two
// outcomes happened.
func Hit(target models.PredictionTarget, class string, home, away float64) bool {
	if target == models.TargetDoubleChance {
		switch class {
		case "1X":
			return home >= away
		case "X2":
			return home <= away
		case "12":
			return home != away
		}
		return false
	}
	return features.DeriveOutcomeLabels(home, away).Label(target) == class
}

// buildStats computes percentages and picks the best target. Targets with no
// scored predictions never win; best_type is empty when none were scored.
func buildStats(correct, total map[models.PredictionTarget]int) PredictionStats {
	stats := PredictionStats{Targets: make(map[string]TargetStats, len(StatsTargets))}
	best := -1.0
	for _, target := range StatsTargets {
		ts := TargetStats{Correct: correct[target], Total: total[target]}
		if ts.Total > 0 {
			ts.Percent = math.Round(float64(ts.Correct)/float64(ts.Total)*100*100) / 100
			if ts.Percent > best {
				best = ts.Percent
				stats.BestType = target.SnapshotKey()
			}
		}
		stats.Targets[target.SnapshotKey()] = ts
	}
	return stats
}
