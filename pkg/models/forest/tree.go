package forest

import "sort"

// tree is a single CART decision tree. Fields are exported for gob.
type tree struct {
	Root *node
}

// node is either an internal gini split or a leaf holding a class.
type node struct {
	Feature   int
	Threshold float64
	Left      *node
	Right     *node

	Leaf  bool
	Class int
}

func (t *tree) predict(row []float64) int {
	n := t.Root
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

// grow builds a subtree over the rows named by idx.
func (c *Classifier) grow(x [][]float64, y []int, idx []int, mtry, depth int) *node {
	counts := make([]int, c.nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	majority, pure := majorityClass(counts, len(idx))

	if pure || len(idx) < c.minSamplesSplit || (c.maxDepth > 0 && depth >= c.maxDepth) {
		return &node{Leaf: true, Class: majority}
	}

	feature, threshold, ok := c.bestSplit(x, y, idx, mtry)
	if !ok {
		return &node{Leaf: true, Class: majority}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{Leaf: true, Class: majority}
	}

	return &node{
		Feature:   feature,
		Threshold: threshold,
		Left:      c.grow(x, y, left, mtry, depth+1),
		Right:     c.grow(x, y, right, mtry, depth+1),
	}
}

// bestSplit scans a random subset of features for the threshold with
// the lowest weighted gini impurity.
func (c *Classifier) bestSplit(x [][]float64, y []int, idx []int, mtry int) (int, float64, bool) {
	features := c.rng.Perm(c.nFeatures)[:mtry]

	bestGini := 2.0 // gini impurity is bounded by 1
	bestFeature, bestThreshold := -1, 0.0
	found := false

	order := make([]int, len(idx))
	leftCounts := make([]int, c.nClasses)
	rightCounts := make([]int, c.nClasses)

	for _, feature := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x[order[a]][feature] < x[order[b]][feature]
		})

		for i := range leftCounts {
			leftCounts[i] = 0
			rightCounts[i] = 0
		}
		for _, i := range order {
			rightCounts[y[i]]++
		}

		total := float64(len(order))
		for pos := 0; pos < len(order)-1; pos++ {
			class := y[order[pos]]
			leftCounts[class]++
			rightCounts[class]--

			cur, next := x[order[pos]][feature], x[order[pos+1]][feature]
			if cur == next {
				continue
			}

			nl := float64(pos + 1)
			nr := total - nl
			g := (nl*gini(leftCounts, nl) + nr*gini(rightCounts, nr)) / total
			if g < bestGini {
				bestGini = g
				bestFeature = feature
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// gini computes impurity from class counts over n samples.
func gini(counts []int, n float64) float64 {
	sum := 0.0
	for _, count := range counts {
		p := float64(count) / n
		sum += p * p
	}
	return 1 - sum
}

// majorityClass returns the most frequent class and whether the node
// is pure. Ties resolve to the lowest code.
func majorityClass(counts []int, total int) (int, bool) {
	best := 0
	for class, n := range counts {
		if n > counts[best] {
			best = class
		}
	}
	return best, counts[best] == total
}
