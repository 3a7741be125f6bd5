package preprocess

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/models"
)

func match(d int, league, t1 string, g1 float64, t2 string, g2 float64, r1, r2 float64) models.MatchRecord {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
	rec := models.MatchRecord{
		Date:       date.Format(models.MatchDateLayout),
		League:     league,
		Team1:      t1,
		Team2:      t2,
		Team1Goals: models.NewNumber(g1),
		Team2Goals: models.NewNumber(g2),
		Team1Rank:  models.NewNumber(r1),
		Team2Rank:  models.NewNumber(r2),
		Odds: models.Odds{
			Home: models.NewNumber(1.5 + float64(d)/10),
			Draw: models.NewNumber(3.2),
			Away: models.NewNumber(4.1),
		},
	}
	rec.GamesPlayed = models.NewNumber(float64(d % 4))
	rec.Team1Wins = models.NewNumber(float64(d % 3))
	return rec
}

func corpus() []models.MatchRecord {
	return []models.MatchRecord{
		match(1, "Premier League", "A", 2, "B", 0, 1, 5),
		match(2, "Premier League", "C", 1, "A", 1, 7, 1),
		match(3, "La Liga", "D", 0, "E", 3, 4, 2),
		match(4, "La Liga", "E", 2, "D", 2, 2, 4),
		match(5, "Premier League", "B", 1, "C", 0, 5, 7),
	}
}

func TestMedian(t *testing.T) {
	m, ok := Median([]float64{3, math.NaN(), 1, 2})
	require.True(t, ok)
	assert.Equal(t, 2.0, m)

	m, ok = Median([]float64{4, 1, 2, 3})
	require.True(t, ok)
	assert.Equal(t, 2.5, m)

	_, ok = Median([]float64{math.NaN()})
	assert.False(t, ok)
}

func TestFitScaler(t *testing.T) {
	s := FitScaler([][]float64{{1, 5}, {3, 5}}, 2)
	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Scale, "population std of {1,3} is 1, constant column scales by 1")

	row := []float64{3, 7}
	require.NoError(t, s.TransformRow(row))
	assert.Equal(t, []float64{1, 2}, row)

	assert.ErrorIs(t, s.TransformRow([]float64{1}), ErrSchemaMismatch)
}

func TestFitFormWindowedOverFormCorpus(t *testing.T) {
	all := []models.MatchRecord{
		match(1, "Premier League", "A", 3, "B", 0, 1, 5),
		match(2, "Premier League", "A", 2, "B", 0, 1, 5),
		match(3, "Premier League", "A", 1, "B", 0, 1, 5),
		match(4, "Premier League", "A", 1, "B", 1, 1, 5),
	}
	rows := all[3:]

	ds, err := Fit(rows, nil, Options{FormWindow: 5, FormCorpus: all})
	require.NoError(t, err)
	idx := ds.Transformer.Schema.Index(features.ColTeam1FormPoints)
	require.GreaterOrEqual(t, idx, 0)
	// a single row, so the fitted mean is the raw form value
	assert.Equal(t, 3.0, ds.Transformer.Scaler.Mean[idx])
	assert.Equal(t, []int64{rows[0].MatchID}, ds.MatchIDs)

	ds, err = Fit(rows, nil, Options{FormWindow: 5})
	require.NoError(t, err)
	idx = ds.Transformer.Schema.Index(features.ColTeam1FormPoints)
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 0.0, ds.Transformer.Scaler.Mean[idx])
}

func TestFit(t *testing.T) {
	recs := corpus()
	bad := match(6, "La Liga", "D", 1, "E", 0, 1, 1)
	bad.Team1Goals = models.Blank()
	undated := match(7, "La Liga", "D", 1, "E", 0, 1, 1)
	undated.Date = "soon"
	recs = append(recs, bad, undated)

	ds, err := Fit(recs, models.AllTargets, Options{FormWindow: 5})
	require.NoError(t, err)

	assert.Equal(t, 7, ds.Stats.Input)
	assert.Equal(t, 1, ds.Stats.DroppedGoals)
	assert.Equal(t, 1, ds.Stats.DroppedDates)
	assert.Equal(t, 5, ds.Stats.Rows)
	assert.Equal(t, 5, ds.Frame.Len())

	assert.Contains(t, ds.Stats.ZeroFilled, features.ColH2HDraws)
	assert.NotContains(t, ds.Stats.ZeroFilled, features.ColH2HTeam1Wins)
	assert.Contains(t, ds.Frame.Schema.Columns, features.ColH2HDraws, "zero-filled counters stay in the schema")
	assert.Contains(t, ds.Frame.Schema.Columns, features.ColTeam1WinRate, "a partly missing rate is imputed, not dropped")
	assert.Contains(t, ds.Stats.DroppedColumns, features.ColTeam1HomeWinRate)
	assert.Contains(t, ds.Frame.Schema.Columns, features.ColLeagueEncoded)

	assert.Equal(t, []string{"1", "X", "2", "X", "1"}, ds.Labels[models.TargetWinner])
	assert.Equal(t, []string{"0", "1", "0", "1", "0"}, ds.Labels[models.TargetBTTS])
	assert.Equal(t, []string{"1X", "1X", "X2", "1X", "1X"}, ds.Labels[models.TargetDoubleChance])

	for j, c := range ds.Frame.Schema.Columns {
		values, _ := ds.Frame.Column(c)
		var sum float64
		for _, v := range values {
			require.False(t, math.IsNaN(v), "column %s row has NaN", c)
			sum += v
		}
		assert.InDelta(t, 0, sum/float64(len(values)), 1e-9, "column %d %s is centered", j, c)
	}

	require.NoError(t, ds.Transformer.Validate())
	assert.Equal(t, []string{"La Liga", "Premier League"}, ds.Transformer.LeagueEncoder.Classes())
}

func TestFitNoRows(t *testing.T) {
	rec := match(1, "L", "A", 1, "B", 0, 1, 2)
	rec.Team2Goals = models.Blank()
	_, err := Fit([]models.MatchRecord{rec}, models.AllTargets, Options{})
	assert.ErrorIs(t, err, ErrNoTrainingRows)
}

func TestTransformerReproducesTraining(t *testing.T) {
	recs := corpus()
	ds, err := Fit(recs, nil, Options{FormWindow: 5})
	require.NoError(t, err)

	engine := features.NewEngine(features.NewFormIndex(recs, 5), nil)
	rows := make([]features.Engineered, 0, len(recs))
	for _, rec := range recs {
		e, err := engine.FromRecord(rec)
		require.NoError(t, err)
		rows = append(rows, e)
	}

	frame, stats, err := ds.Transformer.Prepare(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.LeagueFallbacks)
	assert.Equal(t, ds.Frame.Schema, frame.Schema)
	for i := range frame.Rows {
		assert.InDeltaSlice(t, ds.Frame.Rows[i], frame.Rows[i], 1e-9)
	}
}

func TestTransformerApplyDegrades(t *testing.T) {
	schema := features.Schema{Columns: []features.Column{features.ColTeam1Rank, features.ColOddsMin}}
	tr := &Transformer{
		SchemaVersion: schema.Version(),
		Schema:        schema,
		Medians:       []float64{4, 2},
		Scaler:        StandardScaler{Mean: []float64{2, 1}, Scale: []float64{2, 1}},
		LeagueEncoder: features.FitLabelEncoder([]string{"L"}),
	}

	fresh := features.Frame{
		Schema: features.Schema{Columns: []features.Column{features.ColOddsMin, features.ColOddsMax}},
		Rows:   [][]float64{{math.NaN(), 9}, {3, 9}},
	}
	out, stats, err := tr.Apply(fresh)
	require.NoError(t, err)

	assert.Equal(t, schema, out.Schema)
	assert.Equal(t, []features.Column{features.ColTeam1Rank}, stats.ZeroFilled)
	assert.Equal(t, 1, stats.Imputed)
	assert.Equal(t, []float64{-1, 1}, out.Rows[0], "absent column is raw 0, NaN cell gets the median")
	assert.Equal(t, []float64{-1, 2}, out.Rows[1])
}

func TestTransformerValidate(t *testing.T) {
	schema := features.Schema{Columns: []features.Column{features.ColTeam1Rank}}
	base := Transformer{
		SchemaVersion: schema.Version(),
		Schema:        schema,
		Medians:       []float64{1},
		Scaler:        StandardScaler{Mean: []float64{0}, Scale: []float64{1}},
		LeagueEncoder: features.FitLabelEncoder([]string{"L"}),
	}
	require.NoError(t, base.Validate())

	stale := base
	stale.SchemaVersion = "deadbeef"
	assert.ErrorIs(t, stale.Validate(), ErrSchemaMismatch)

	short := base
	short.Medians = nil
	assert.ErrorIs(t, short.Validate(), ErrSchemaMismatch)

	unknown := base
	unknown.Schema = features.Schema{Columns: []features.Column{"Goal_Difference"}}
	unknown.SchemaVersion = unknown.Schema.Version()
	assert.ErrorIs(t, unknown.Validate(), features.ErrUnknownColumn)
}

func TestSaveLoadTransformer(t *testing.T) {
	ds, err := Fit(corpus(), nil, Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "preprocess.json")
	require.NoError(t, SaveTransformer(path, ds.Transformer))

	loaded, err := LoadTransformer(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Transformer.SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, ds.Transformer.Schema, loaded.Schema)
	assert.Equal(t, ds.Transformer.LeagueEncoder.Classes(), loaded.LeagueEncoder.Classes())
	assert.InDeltaSlice(t, ds.Transformer.Medians, loaded.Medians, 1e-12)
}
