package preprocess

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each column on its mean and divides by its
// population standard deviation. Constant columns get a scale of 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler fits a scaler on rows with no missing cells.
func FitScaler(rows [][]float64, width int) StandardScaler {
	s := StandardScaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		std := 0.0
		if len(rows) > 0 {
			for i, row := range rows {
				col[i] = row[j]
			}
			s.Mean[j], std = stat.PopMeanStdDev(col, nil)
		}
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// Width returns the number of columns the scaler was fit on.
func (s StandardScaler) Width() int {
	return len(s.Mean)
}

// TransformRow scales row in place.
func (s StandardScaler) TransformRow(row []float64) error {
	if len(row) != len(s.Mean) {
		return fmt.Errorf("%w: scaler width %d, row width %d", ErrSchemaMismatch, len(s.Mean), len(row))
	}
	for j := range row {
		row[j] = (row[j] - s.Mean[j]) / s.Scale[j]
	}
	return nil
}

// Median returns the median of the non-NaN values, and false when there are
// none. Even counts average the two middle values.
func Median(values []float64) (float64, bool) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, false
	}
	sort.Float64s(clean)
	lower := stat.Quantile(0.5, stat.Empirical, clean, nil)
	if len(clean)%2 == 1 {
		return lower, true
	}
	return stat.Mean([]float64{lower, clean[len(clean)/2]}, nil), true
}
