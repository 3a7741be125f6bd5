package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// ForestParams are the hyperparameters of a RandomForest.
type ForestParams struct {
	Trees          int   `json:"trees"`
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	MaxFeatures    int   `json:"max_features"`
	Seed           int64 `json:"seed"`
}

// DefaultForestParams returns the defaults used when config leaves them unset.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, MaxDepth: 8, MinSamplesLeaf: 2, Seed: 42}
}

// RandomForest is a bootstrap-aggregated ensemble of gini CART trees. Each
// split considers sqrt(width) random features unless MaxFeatures is set.
type RandomForest struct {
	Params  ForestParams `json:"params"`
	Classes []int        `json:"classes"`
	Width   int          `json:"width"`
	Trees   []Tree       `json:"trees"`
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(params ForestParams) *RandomForest {
	if params.Trees < 1 {
		params.Trees = 1
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	return &RandomForest{Params: params}
}

// Fit trains the forest on rows x with integer labels y.
func (f *RandomForest) Fit(x [][]float64, y []int) error {
	start := time.Now()
	defer func() {
		ForestFitDuration.Observe(time.Since(start).Seconds())
	}()

	if len(x) == 0 {
		return ErrEmptyDataset
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), width)
		}
	}

	f.Classes = distinctSorted(y)
	index := make(map[int]int, len(f.Classes))
	for i, c := range f.Classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, v := range y {
		encoded[i] = index[v]
	}

	maxFeatures := f.Params.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(width)))))
	}
	params := treeParams{
		maxDepth:       f.Params.MaxDepth,
		minSamplesLeaf: f.Params.MinSamplesLeaf,
		maxFeatures:    maxFeatures,
	}

	rng := rand.New(rand.NewSource(f.Params.Seed))
	f.Width = width
	f.Trees = make([]Tree, f.Params.Trees)
	n := len(x)
	for t := range f.Trees {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		f.Trees[t] = fitTree(x, encoded, len(f.Classes), sample, params, rng)
	}
	return nil
}

// PredictProba returns the mean leaf class distribution, ordered as Classes.
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 || len(f.Classes) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != f.Width {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), f.Width)
	}
	proba := make([]float64, len(f.Classes))
	for _, t := range f.Trees {
		for i, p := range t.leaf(x) {
			proba[i] += p
		}
	}
	for i := range proba {
		proba[i] /= float64(len(f.Trees))
	}
	return proba, nil
}

// Predict returns the most probable class and its probability. Ties go to
// the lowest class.
func (f *RandomForest) Predict(x []float64) (int, float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}
	return f.Classes[best], proba[best], nil
}

// Score returns the accuracy of the forest on x, y.
func (f *RandomForest) Score(x [][]float64, y []int) (float64, error) {
	pred := make([]int, len(x))
	for i, row := range x {
		c, _, err := f.Predict(row)
		if err != nil {
			return 0, err
		}
		pred[i] = c
	}
	return Accuracy(pred, y), nil
}

// Accuracy returns the fraction of predictions equal to the labels.
func Accuracy(pred, y []int) float64 {
	if len(y) == 0 || len(pred) != len(y) {
		return 0
	}
	correct := 0
	for i := range y {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func distinctSorted(y []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range y {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
