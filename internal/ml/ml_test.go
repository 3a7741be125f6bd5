package ml

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable builds two well separated clusters labelled 0 and 1.
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		label := i % 2
		center := -2.0
		if label == 1 {
			center = 2.0
		}
		x = append(x, []float64{center + rng.NormFloat64()*0.3, rng.NormFloat64(), center + rng.NormFloat64()*0.3})
		y = append(y, label)
	}
	return x, y
}

func TestRandomForestFitsSeparableData(t *testing.T) {
	x, y := separable(120, 1)
	forest := NewRandomForest(ForestParams{Trees: 15, MaxDepth: 4, MinSamplesLeaf: 1, Seed: 3})
	require.NoError(t, forest.Fit(x, y))

	assert.Equal(t, []int{0, 1}, forest.Classes)
	assert.Equal(t, 3, forest.Width)
	for _, tree := range forest.Trees {
		assert.LessOrEqual(t, tree.Depth(), 4)
	}

	acc, err := forest.Score(x, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95)

	class, conf, err := forest.Predict([]float64{2, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Greater(t, conf, 0.5)
}

func TestRandomForestProbabilities(t *testing.T) {
	x, y := separable(60, 2)
	for i := range y {
		if i%5 == 0 {
			y[i] = 7
		}
	}
	forest := NewRandomForest(ForestParams{Trees: 10, MaxDepth: 3, MinSamplesLeaf: 2, Seed: 1})
	require.NoError(t, forest.Fit(x, y))
	assert.Equal(t, []int{0, 1, 7}, forest.Classes)

	proba, err := forest.PredictProba(x[0])
	require.NoError(t, err)
	require.Len(t, proba, 3)
	var sum float64
	for _, p := range proba {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRandomForestSingleClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	forest := NewRandomForest(ForestParams{Trees: 3, Seed: 1})
	require.NoError(t, forest.Fit(x, []int{0, 0, 0}))

	class, conf, err := forest.Predict([]float64{10})
	require.NoError(t, err)
	assert.Equal(t, 0, class)
	assert.Equal(t, 1.0, conf)
}

func TestRandomForestErrors(t *testing.T) {
	forest := NewRandomForest(DefaultForestParams())
	_, _, err := forest.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, forest.Fit(nil, nil), ErrEmptyDataset)
	assert.ErrorIs(t, forest.Fit([][]float64{{1}, {1, 2}}, []int{0, 1}), ErrDimensionMismatch)

	require.NoError(t, forest.Fit([][]float64{{1}, {2}}, []int{0, 1}))
	_, err = forest.PredictProba([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRandomForestDeterministicAndSerializable(t *testing.T) {
	x, y := separable(80, 5)
	params := ForestParams{Trees: 8, MaxDepth: 5, MinSamplesLeaf: 1, Seed: 11}

	a := NewRandomForest(params)
	b := NewRandomForest(params)
	require.NoError(t, a.Fit(x, y))
	require.NoError(t, b.Fit(x, y))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded RandomForest
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, row := range x[:20] {
		pa, err := a.PredictProba(row)
		require.NoError(t, err)
		pb, err := b.PredictProba(row)
		require.NoError(t, err)
		pd, err := decoded.PredictProba(row)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
		assert.InDeltaSlice(t, pa, pd, 1e-12)
	}
}

func TestKFold(t *testing.T) {
	folds, err := KFold(10, 3, 42)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	for _, f := range folds {
		assert.Len(t, f.Train, 10-len(f.Test))
		all = append(all, f.Test...)
	}
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
	assert.Equal(t, []int{4, 3, 3}, []int{len(folds[0].Test), len(folds[1].Test), len(folds[2].Test)})

	folds, err = KFold(3, 5, 1)
	require.NoError(t, err)
	assert.Len(t, folds, 3)

	_, err = KFold(1, 5, 1)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestCrossValidate(t *testing.T) {
	x, y := separable(60, 9)
	res, err := CrossValidate(x, y, 5, 42, func() Classifier {
		return NewRandomForest(ForestParams{Trees: 5, MaxDepth: 3, MinSamplesLeaf: 1, Seed: 1})
	})
	require.NoError(t, err)
	assert.Len(t, res.Scores, 5)
	assert.GreaterOrEqual(t, res.Mean, 0.9)
	assert.GreaterOrEqual(t, res.Std, 0.0)
}

func TestTrainTestSplitStratified(t *testing.T) {
	y := make([]int, 100)
	for i := range y {
		if i < 30 {
			y[i] = 1
		}
	}
	split, err := TrainTestSplit(y, 0.2, 42)
	require.NoError(t, err)

	assert.True(t, split.Stratified)
	assert.Empty(t, split.Warning)
	assert.Len(t, split.Test, 20)
	assert.Len(t, split.Train, 80)

	ones := 0
	for _, i := range split.Test {
		ones += y[i]
	}
	assert.Equal(t, 6, ones)
}

func TestTrainTestSplitSingleClass(t *testing.T) {
	split, err := TrainTestSplit([]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0.2, 42)
	require.NoError(t, err)

	assert.False(t, split.Stratified)
	assert.Contains(t, split.Warning, "only one class")
	assert.Len(t, split.Test, 2)
	assert.Len(t, split.Train, 8)
}

func TestTrainTestSplitRareClass(t *testing.T) {
	split, err := TrainTestSplit([]int{0, 0, 0, 0, 1}, 0.2, 42)
	require.NoError(t, err)
	assert.False(t, split.Stratified)
	assert.Contains(t, split.Warning, "fewer than two rows")

	_, err = TrainTestSplit([]int{1}, 0.2, 42)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0.75, Accuracy([]int{1, 0, 1, 1}, []int{1, 0, 0, 1}))
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestMeanStd(t *testing.T) {
	mean, std := meanStd([]float64{0.6, 0.8, 1.0})
	assert.InDelta(t, 0.8, mean, 1e-12)
	assert.InDelta(t, 0.163299316, std, 1e-9, "population std")

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}
