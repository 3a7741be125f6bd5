package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

func TestEmptyFields(t *testing.T) {
	v := NewDataValidator(nil)

	t.Run("complete record", func(t *testing.T) {
		rec := fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1)
		assert.Empty(t, v.EmptyFields(&rec))
	})

	t.Run("league match needs ranks", func(t *testing.T) {
		rec := fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1)
		rec.Team1Rank = models.Blank()
		assert.Equal(t, []string{"team1_rank"}, v.EmptyFields(&rec))
	})

	t.Run("cup match is exempt from ranks", func(t *testing.T) {
		rec := fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1)
		rec.IsCup = true
		rec.Team1Rank = models.Blank()
		rec.Team2Rank = models.Number{}
		assert.Empty(t, v.EmptyFields(&rec))
	})

	t.Run("missing head-to-head and goals", func(t *testing.T) {
		rec := fullRecord(1, "10/03/2024", "Arsenal", "", 2, 1)
		rec.HeadToHead = models.HeadToHead{}
		rec.Team2Goals = models.Blank()
		fields := v.EmptyFields(&rec)
		assert.Len(t, fields, 18)
		assert.Contains(t, fields, "team2")
		assert.Contains(t, fields, "team2_goals")
		assert.Contains(t, fields, "h2h_team2_home_conceded")
	})

	t.Run("odds are optional", func(t *testing.T) {
		rec := fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1)
		rec.Odds = blankOdds()
		assert.Empty(t, v.EmptyFields(&rec))
	})
}

func toMap(t *testing.T, rec models.MatchRecord) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestValidateCorpus(t *testing.T) {
	a := toMap(t, fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1))

	missingLeague := toMap(t, fullRecord(2, "11/03/2024", "Spurs", "Everton", 0, 0))
	delete(missingLeague, "league")

	emptyDraws := toMap(t, fullRecord(3, "12/03/2024", "Leeds", "Fulham", 1, 1))
	emptyDraws["h2h_draws"] = ""

	duplicate := toMap(t, fullRecord(4, "10/03/2024", "Arsenal", "Chelsea", 3, 0))

	badGoals := toMap(t, fullRecord(5, "13/03/2024", "Wolves", "Brentford", 1, 0))
	badGoals["team1_goals"] = "abc"

	path := filepath.Join(t.TempDir(), "matches_raw.json")
	require.NoError(t, storage.WriteJSON(path, []map[string]interface{}{a, missingLeague, emptyDraws, duplicate, badGoals}))

	report, err := NewDataValidator(nil).ValidateCorpus(path)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Records)
	assert.False(t, report.Valid())

	require.Len(t, report.Errors, 2)
	assert.Equal(t, Issue{Match: 2, Field: "league", Message: "missing field"}, report.Errors[0])
	assert.Equal(t, 4, report.Errors[1].Match)
	assert.Contains(t, report.Errors[1].Message, "duplicate of match 1")

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, Issue{Match: 3, Field: "h2h_draws", Message: "empty field"}, report.Warnings[0])
	assert.Equal(t, Issue{Match: 5, Field: "team1_goals", Message: "non-numeric field"}, report.Warnings[1])
}

func TestValidateCorpusWarningsOnly(t *testing.T) {
	rec := toMap(t, fullRecord(1, "10/03/2024", "Arsenal", "Chelsea", 2, 1))
	rec["is_cup"] = nil

	path := filepath.Join(t.TempDir(), "matches_raw.json")
	require.NoError(t, storage.WriteJSON(path, []map[string]interface{}{rec}))

	report, err := NewDataValidator(nil).ValidateCorpus(path)
	require.NoError(t, err)
	assert.True(t, report.Valid())
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "empty field: is_cup in match 1", report.Warnings[0].String())
}

func TestValidateCorpusMissingFile(t *testing.T) {
	_, err := NewDataValidator(nil).ValidateCorpus(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestValidateCorpusMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches_raw.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewDataValidator(nil).ValidateCorpus(path)
	require.Error(t, err)
}
