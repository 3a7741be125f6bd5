package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/match-predictor/internal/models"
)

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, WriteJSON(path, map[string]int{"a": 1}))
	var got map[string]int
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, 1, got["a"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestReadJSONErrors(t *testing.T) {
	dir := t.TempDir()
	var v interface{}

	err := ReadJSON(filepath.Join(dir, "missing.json"), &v)
	assert.ErrorIs(t, err, ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	err = ReadJSON(bad, &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotExist)
}

func TestPredictionFilesMissing(t *testing.T) {
	dir := t.TempDir()
	files := PredictionFiles{
		SnapshotPath: filepath.Join(dir, "predictions.json"),
		HistoryPath:  filepath.Join(dir, "predictions_history.json"),
	}

	snap, err := files.LoadSnapshot()
	require.NoError(t, err)
	assert.Empty(t, snap)
	assert.NotNil(t, snap)

	hist, err := files.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestAppendHistory(t *testing.T) {
	dir := t.TempDir()
	files := PredictionFiles{HistoryPath: filepath.Join(dir, "history.json")}
	runID := uuid.New()
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first := models.NewHistoryEntries([]models.PredictionResult{{MatchID: 1}}, runID, at)
	second := models.NewHistoryEntries([]models.PredictionResult{{MatchID: 2}, {MatchID: 3}}, runID, at)
	require.NoError(t, files.AppendHistory(first))
	require.NoError(t, files.AppendHistory(second))

	hist, err := files.LoadHistory()
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, int64(1), hist[0].MatchID)
	assert.Equal(t, int64(3), hist[2].MatchID)
	assert.Equal(t, runID, hist[2].RunID)
}

func TestLoadMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches_raw.json")
	raw := `[{"date":"01/03/2024","time":"15:00","league":"Premier League","is_cup":false,
	"team1":"A","team2":"B","team1_goals":"2","team2_goals":1,"team1_rank":"","team2_rank":4,
	"h2h_games_played":3,"home_win":"1.90","draw":3.4,"away_win":null}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	recs, err := LoadMatches(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].HasOutcome())
	assert.True(t, recs[0].Team1Rank.Present)
	assert.False(t, recs[0].Team1Rank.Valid)
	assert.InDelta(t, 1.9, recs[0].Odds.Home.Value, 1e-9)
	assert.False(t, recs[0].Odds.Complete())

	_, err = LoadMatches(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, ErrNotExist)
}
