package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Classifier is a model that can be cross-validated.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Score(x [][]float64, y []int) (float64, error)
}

// Fold holds the row indices of one cross-validation fold.
type Fold struct {
	Train []int
	Test  []int
}

// KFold shuffles n row indices with seed and partitions them into k folds.
// k is capped at n.
func KFold(n, k int, seed int64) ([]Fold, error) {
	if k > n {
		k = n
	}
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows for cross-validation, got %d", ErrTooFewSamples, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([]Fold, k)
	start := 0
	for i := 0; i < k; i++ {
		size := n / k
		if i < n%k {
			size++
		}
		test := append([]int(nil), perm[start:start+size]...)
		train := make([]int, 0, n-size)
		train = append(train, perm[:start]...)
		train = append(train, perm[start+size:]...)
		folds[i] = Fold{Train: train, Test: test}
		start += size
	}
	return folds, nil
}

// CVResult is the outcome of cross-validation.
type CVResult struct {
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
}

// CrossValidate fits a fresh classifier per fold and scores it on the
// held-out rows.
func CrossValidate(x [][]float64, y []int, k int, seed int64, newModel func() Classifier) (CVResult, error) {
	folds, err := KFold(len(x), k, seed)
	if err != nil {
		return CVResult{}, err
	}
	var res CVResult
	for _, fold := range folds {
		model := newModel()
		if err := model.Fit(pick(x, fold.Train), pickInts(y, fold.Train)); err != nil {
			return CVResult{}, err
		}
		score, err := model.Score(pick(x, fold.Test), pickInts(y, fold.Test))
		if err != nil {
			return CVResult{}, err
		}
		res.Scores = append(res.Scores, score)
	}
	res.Mean, res.Std = meanStd(res.Scores)
	return res, nil
}

// Split is a train/validation partition.
type Split struct {
	Train      []int
	Test       []int
	Stratified bool
	Warning    string
}

// TrainTestSplit holds out testFraction of the rows, preserving class
// proportions. When only one class is present, or a class has fewer than two
// rows, it falls back to a plain shuffled split and sets Warning.
func TrainTestSplit(y []int, testFraction float64, seed int64) (Split, error) {
	n := len(y)
	if n < 2 {
		return Split{}, fmt.Errorf("%w: need at least 2 rows for a split, got %d", ErrTooFewSamples, n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	degenerate := len(byClass) < 2
	for c, rows := range byClass {
		classes = append(classes, c)
		if len(rows) < 2 {
			degenerate = true
		}
	}
	sort.Ints(classes)

	if degenerate {
		nTest := clampInt(int(math.Ceil(testFraction*float64(n))), 1, n-1)
		perm := rng.Perm(n)
		warning := "only one class present, stratified split disabled"
		if len(byClass) > 1 {
			warning = "a class has fewer than two rows, stratified split disabled"
		}
		return Split{
			Train:   perm[nTest:],
			Test:    perm[:nTest],
			Warning: warning,
		}, nil
	}

	var split Split
	split.Stratified = true
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		nTest := clampInt(int(math.Round(testFraction*float64(len(rows)))), 1, len(rows)-1)
		split.Test = append(split.Test, rows[:nTest]...)
		split.Train = append(split.Train, rows[nTest:]...)
	}
	rng.Shuffle(len(split.Train), func(i, j int) { split.Train[i], split.Train[j] = split.Train[j], split.Train[i] })
	return split, nil
}

// Pick returns the rows of x at the given indices.
func Pick(x [][]float64, idx []int) [][]float64 {
	return pick(x, idx)
}

// PickInts returns the values of y at the given indices.
func PickInts(y []int, idx []int) []int {
	return pickInts(y, idx)
}

func pick(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func pickInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
