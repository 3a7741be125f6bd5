package storage

import (
	"errors"
	"fmt"

	"github.com/yourusername/match-predictor/internal/models"
)

// PredictionFiles holds the snapshot and history paths.
type PredictionFiles struct {
	SnapshotPath string
	HistoryPath  string
}

// LoadSnapshot reads the current predictions. A missing file yields an empty
// list.
func (p PredictionFiles) LoadSnapshot() ([]models.PredictionResult, error) {
	var results []models.PredictionResult
	if err := ReadJSON(p.SnapshotPath, &results); err != nil {
		if errors.Is(err, ErrNotExist) {
			return []models.PredictionResult{}, nil
		}
		return nil, err
	}
	if results == nil {
		results = []models.PredictionResult{}
	}
	return results, nil
}

// SaveSnapshot replaces the current predictions.
func (p PredictionFiles) SaveSnapshot(results []models.PredictionResult) error {
	if results == nil {
		results = []models.PredictionResult{}
	}
	return WriteJSON(p.SnapshotPath, results)
}

// LoadHistory reads the history log. A missing file yields an empty log.
func (p PredictionFiles) LoadHistory() ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := ReadJSON(p.HistoryPath, &entries); err != nil {
		if errors.Is(err, ErrNotExist) {
			return []models.HistoryEntry{}, nil
		}
		return nil, err
	}
	return entries, nil
}

// SaveHistory replaces the history log.
func (p PredictionFiles) SaveHistory(entries []models.HistoryEntry) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return WriteJSON(p.HistoryPath, entries)
}

// AppendHistory appends entries to the history log with a read-modify-write.
// Callers must not run concurrently.
func (p PredictionFiles) AppendHistory(entries []models.HistoryEntry) error {
	existing, err := p.LoadHistory()
	if err != nil {
		return fmt.Errorf("failed to load prediction history: %w", err)
	}
	return p.SaveHistory(append(existing, entries...))
}

// LoadMatches reads a corpus of historical matches.
func LoadMatches(path string) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	if err := ReadJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveMatches writes a corpus of historical matches.
func SaveMatches(path string, records []models.MatchRecord) error {
	if records == nil {
		records = []models.MatchRecord{}
	}
	return WriteJSON(path, records)
}

// LoadUpcoming reads a list of upcoming matches. A missing file yields none.
func LoadUpcoming(path string) ([]models.UpcomingMatch, error) {
	var matches []models.UpcomingMatch
	if err := ReadJSON(path, &matches); err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return matches, nil
}

// SaveUpcoming writes a list of upcoming matches.
func SaveUpcoming(path string, matches []models.UpcomingMatch) error {
	if matches == nil {
		matches = []models.UpcomingMatch{}
	}
	return WriteJSON(path, matches)
}

// LoadLeagues reads the league reference table.
func LoadLeagues(path string) (models.LeagueTable, error) {
	var leagues []models.League
	if err := ReadJSON(path, &leagues); err != nil {
		return nil, err
	}
	return models.NewLeagueTable(leagues), nil
}
