package features

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split is a disjoint train/test partition of a feature matrix. Both
// sides keep the original row indices so downstream results can be
// joined back to the combined batch unambiguously instead of relying
// on row position.
type Split struct {
	XTrain [][]float64
	XTest  [][]float64
	YTrain []int
	YTest  []int

	TrainIndex []int
	TestIndex  []int
}

// StratifiedSplit partitions rows so each label keeps its proportion
// on both sides. The shuffle is driven by the seed alone: identical
// input and seed yield an identical split.
func StratifiedSplit(x [][]float64, y []int, testFraction float64, seed int64) (*Split, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("features: %d rows but %d labels", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("features: need at least 2 rows to split, have %d", len(x))
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("features: test fraction %v out of (0, 1)", testFraction)
	}

	groups := make(map[int][]int)
	for i, code := range y {
		groups[code] = append(groups[code], i)
	}
	codes := make([]int, 0, len(groups))
	for code := range groups {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	rng := rand.New(rand.NewSource(seed))
	split := &Split{}
	for _, code := range codes {
		group := groups[code]
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})

		nTest := int(math.Round(testFraction * float64(len(group))))
		if nTest == 0 && len(group) > 1 {
			nTest = 1
		}
		if nTest == len(group) {
			nTest--
		}
		split.TestIndex = append(split.TestIndex, group[:nTest]...)
		split.TrainIndex = append(split.TrainIndex, group[nTest:]...)
	}

	split.XTrain = gather(x, split.TrainIndex)
	split.XTest = gather(x, split.TestIndex)
	split.YTrain = gatherInts(y, split.TrainIndex)
	split.YTest = gatherInts(y, split.TestIndex)
	return split, nil
}

func gather(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func gatherInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
