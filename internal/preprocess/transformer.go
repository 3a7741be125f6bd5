// Package preprocess turns engineered features into the model-ready matrix
// and keeps the fitted artifacts needed to reproduce it at inference.
package preprocess

import (
	"fmt"
	"math"

	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/storage"
)

// Transformer is the versioned unit of fitted preprocessing state: the
// ordered schema, the training medians, the scaler and the league encoder.
// The parts are only valid together.
type Transformer struct {
	SchemaVersion string                 `json:"schema_version"`
	Schema        features.Schema        `json:"schema"`
	Medians       []float64              `json:"medians"`
	Scaler        StandardScaler         `json:"scaler"`
	LeagueEncoder *features.LabelEncoder `json:"league_encoder"`
}

// ApplyStats reports the degradations applied while transforming a frame.
type ApplyStats struct {
	LeagueFallbacks int
	ZeroFilled      []features.Column
	Imputed         int
}

// Validate checks the transformer is internally consistent.
func (t *Transformer) Validate() error {
	if err := t.Schema.Validate(); err != nil {
		return err
	}
	if t.SchemaVersion != t.Schema.Version() {
		return fmt.Errorf("%w: version %s does not match schema %s", ErrSchemaMismatch, t.SchemaVersion, t.Schema.Version())
	}
	if len(t.Medians) != t.Schema.Len() || t.Scaler.Width() != t.Schema.Len() || len(t.Scaler.Scale) != t.Schema.Len() {
		return fmt.Errorf("%w: %d columns, %d medians, %d scaler columns",
			ErrSchemaMismatch, t.Schema.Len(), len(t.Medians), t.Scaler.Width())
	}
	if t.LeagueEncoder == nil {
		return fmt.Errorf("%w: missing league encoder", ErrSchemaMismatch)
	}
	return nil
}

// Apply reproduces the training transform on frame. Columns of the fitted
// schema missing from frame are filled with 0 before scaling; missing cells
// get the training median.
func (t *Transformer) Apply(frame features.Frame) (features.Frame, ApplyStats, error) {
	var stats ApplyStats
	if err := t.Validate(); err != nil {
		return features.Frame{}, stats, err
	}

	src := make([]int, t.Schema.Len())
	for j, c := range t.Schema.Columns {
		src[j] = frame.Schema.Index(c)
		if src[j] < 0 {
			stats.ZeroFilled = append(stats.ZeroFilled, c)
		}
	}

	out := features.Frame{Schema: t.Schema, Rows: make([][]float64, frame.Len())}
	for i, in := range frame.Rows {
		row := make([]float64, t.Schema.Len())
		for j, k := range src {
			if k < 0 {
				continue
			}
			v := in[k]
			if math.IsNaN(v) {
				v = t.Medians[j]
				stats.Imputed++
			}
			row[j] = v
		}
		if err := t.Scaler.TransformRow(row); err != nil {
			return features.Frame{}, stats, err
		}
		out.Rows[i] = row
	}
	return out, stats, nil
}

// Prepare encodes engineered rows with this transformer's league encoder
// and applies the transform. Columns whose raw inputs were absent from every
// row are treated as missing from the frame.
func (t *Transformer) Prepare(rows []features.Engineered) (features.Frame, ApplyStats, error) {
	if t.LeagueEncoder == nil {
		return features.Frame{}, ApplyStats{}, fmt.Errorf("%w: missing league encoder", ErrSchemaMismatch)
	}
	frame, fallbacks, err := features.Materialize(rows, features.CanonicalSchema(), t.LeagueEncoder)
	if err != nil {
		return features.Frame{}, ApplyStats{}, err
	}
	frame = frame.Without(features.AbsentColumns(rows, frame.Schema)...)

	out, stats, err := t.Apply(frame)
	stats.LeagueFallbacks = fallbacks
	return out, stats, err
}

// SaveTransformer persists t as JSON.
func SaveTransformer(path string, t *Transformer) error {
	return storage.WriteJSON(path, t)
}

// LoadTransformer reads and validates a persisted transformer.
func LoadTransformer(path string) (*Transformer, error) {
	var t Transformer
	if err := storage.ReadJSON(path, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transformer in %s: %w", path, err)
	}
	return &t, nil
}
