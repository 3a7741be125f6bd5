package preprocess

import (
	"math"

	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/models"
)

// Options configures fitting.
type Options struct {
	FormWindow int
	// FormCorpus is the history recent form is windowed over. Nil uses the
	// training records themselves. Pass the full corpus when the rows are a
	// filtered subset so form matches what inference sees.
	FormCorpus []models.MatchRecord
}

// Stats are the counters collected while fitting.
type Stats struct {
	Input          int
	DroppedGoals   int
	DroppedDates   int
	Rows           int
	ZeroFilled     []features.Column
	DroppedColumns []features.Column
}

// Counters returns the numeric counters for stage logging.
func (s Stats) Counters() map[string]int {
	return map[string]int{
		"input":           s.Input,
		"dropped_goals":   s.DroppedGoals,
		"dropped_dates":   s.DroppedDates,
		"rows":            s.Rows,
		"zero_filled":     len(s.ZeroFilled),
		"dropped_columns": len(s.DroppedColumns),
	}
}

// Dataset is the model-ready training matrix with its labels and the fitted
// transformer that produced it.
type Dataset struct {
	Frame       features.Frame
	MatchIDs    []int64
	Labels      map[models.PredictionTarget][]string
	Transformer *Transformer
	Stats       Stats
}

// Fit cleans records, engineers every feature, and fits the imputer, scaler
// and league encoder on the result.
func Fit(records []models.MatchRecord, targets []models.PredictionTarget, opts Options) (*Dataset, error) {
	stats := Stats{Input: len(records)}

	kept := make([]models.MatchRecord, 0, len(records))
	for _, rec := range records {
		if !rec.HasOutcome() {
			stats.DroppedGoals++
			continue
		}
		if _, err := rec.Day(); err != nil {
			stats.DroppedDates++
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return nil, ErrNoTrainingRows
	}

	formCorpus := opts.FormCorpus
	if formCorpus == nil {
		formCorpus = kept
	}
	engine := features.NewEngine(features.NewFormIndex(formCorpus, opts.FormWindow), nil)
	rows := make([]features.Engineered, 0, len(kept))
	ids := make([]int64, 0, len(kept))
	leagues := make([]string, 0, len(kept))
	labels := make(map[models.PredictionTarget][]string, len(targets))
	presentCounters := make(map[features.Column]bool)

	for _, rec := range kept {
		e, err := engine.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, e)
		ids = append(ids, rec.MatchID)
		leagues = append(leagues, rec.League)

		outcome := features.DeriveOutcomeLabels(rec.Team1Goals.Value, rec.Team2Goals.Value)
		for _, t := range targets {
			labels[t] = append(labels[t], outcome.Label(t))
		}
		for _, c := range features.PresentCounters(rec.HeadToHead) {
			presentCounters[c] = true
		}
	}

	encoder := features.FitLabelEncoder(leagues)
	frame, _, err := features.Materialize(rows, features.CanonicalSchema(), encoder)
	if err != nil {
		return nil, err
	}

	for _, c := range features.H2HCounterColumns {
		if !presentCounters[c] {
			fillColumn(frame, c, 0)
			stats.ZeroFilled = append(stats.ZeroFilled, c)
		}
	}

	stats.DroppedColumns = frame.EmptyColumns()
	frame = frame.Without(stats.DroppedColumns...)

	medians := make([]float64, frame.Schema.Len())
	for j, c := range frame.Schema.Columns {
		values, _ := frame.Column(c)
		medians[j], _ = Median(values)
	}
	for _, row := range frame.Rows {
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = medians[j]
			}
		}
	}

	scaler := FitScaler(frame.Rows, frame.Schema.Len())
	for _, row := range frame.Rows {
		if err := scaler.TransformRow(row); err != nil {
			return nil, err
		}
	}

	stats.Rows = frame.Len()
	return &Dataset{
		Frame:    frame,
		MatchIDs: ids,
		Labels:   labels,
		Transformer: &Transformer{
			SchemaVersion: frame.Schema.Version(),
			Schema:        frame.Schema,
			Medians:       medians,
			Scaler:        scaler,
			LeagueEncoder: encoder,
		},
		Stats: stats,
	}, nil
}

func fillColumn(frame features.Frame, c features.Column, v float64) {
	j := frame.Schema.Index(c)
	if j < 0 {
		return
	}
	for _, row := range frame.Rows {
		row[j] = v
	}
}
