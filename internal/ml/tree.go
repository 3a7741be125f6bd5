package ml

import (
	"math/rand"
	"sort"
)

// Node is one node of a fitted decision tree. Leaves have Left == -1 and
// carry the class distribution of the training rows that reached them.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Dist      []float64 `json:"d,omitempty"`
}

// Tree is a CART classification tree stored as a flat node list.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
}

type treeBuilder struct {
	x        [][]float64
	y        []int
	nClasses int
	params   treeParams
	rng      *rand.Rand
	tree     *Tree
}

func fitTree(x [][]float64, y []int, nClasses int, rows []int, params treeParams, rng *rand.Rand) Tree {
	b := &treeBuilder{x: x, y: y, nClasses: nClasses, params: params, rng: rng, tree: &Tree{}}
	b.build(rows, 0)
	return *b.tree
}

func (b *treeBuilder) build(rows []int, depth int) int {
	counts := b.classCounts(rows)
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Left: -1, Right: -1})

	if b.stop(rows, counts, depth) {
		b.tree.Nodes[id].Dist = distribution(counts, len(rows))
		return id
	}

	feature, threshold, ok := b.bestSplit(rows, counts)
	if !ok {
		b.tree.Nodes[id].Dist = distribution(counts, len(rows))
		return id
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if b.x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[id].Feature = feature
	b.tree.Nodes[id].Threshold = threshold
	b.tree.Nodes[id].Left = l
	b.tree.Nodes[id].Right = r
	return id
}

func (b *treeBuilder) stop(rows []int, counts []int, depth int) bool {
	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return true
	}
	if len(rows) < 2*b.params.minSamplesLeaf {
		return true
	}
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// bestSplit searches a random subset of features for the threshold with the
// lowest weighted gini impurity that keeps minSamplesLeaf rows on each side.
func (b *treeBuilder) bestSplit(rows []int, parent []int) (int, float64, bool) {
	width := len(b.x[rows[0]])
	n := len(rows)
	bestImpurity := gini(parent, n) - 1e-12
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)
	minLeaf := b.params.minSamplesLeaf

	for _, f := range b.rng.Perm(width)[:b.featureCount(width)] {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		for k := range left {
			left[k] = 0
		}
		copy(right, parent)

		for i := 0; i < n-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			nLeft := i + 1
			if nLeft < minLeaf || n-nLeft < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			impurity := (float64(nLeft)*gini(left, nLeft) + float64(n-nLeft)*gini(right, n-nLeft)) / float64(n)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) featureCount(width int) int {
	m := b.params.maxFeatures
	if m <= 0 || m > width {
		return width
	}
	return m
}

func (b *treeBuilder) classCounts(rows []int) []int {
	counts := make([]int, b.nClasses)
	for _, r := range rows {
		counts[b.y[r]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func distribution(counts []int, n int) []float64 {
	dist := make([]float64, len(counts))
	if n == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = float64(c) / float64(n)
	}
	return dist
}

// leaf returns the class distribution for x.
func (t Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Left < 0 {
			return node.Dist
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// Depth returns the maximum depth of the tree.
func (t Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Left < 0 {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return walk(0)
}
