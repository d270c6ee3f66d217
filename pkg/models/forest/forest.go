// Package forest implements a random-forest classifier: an ensemble of
// gini-split decision trees, each grown on a bootstrap sample with a
// random feature subset per split, combined by majority vote.
package forest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Classifier is an ensemble of decision trees.
type Classifier struct {
	mu sync.RWMutex

	// Configuration
	nTrees          int
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	rng             *rand.Rand

	// Trained model
	trees     []*tree
	nClasses  int
	nFeatures int
	trained   bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTrees sets the number of trees in the ensemble.
func WithTrees(n int) Option {
	return func(c *Classifier) {
		c.nTrees = n
	}
}

// WithMaxDepth bounds tree depth; zero grows trees until pure.
func WithMaxDepth(d int) Option {
	return func(c *Classifier) {
		c.maxDepth = d
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(c *Classifier) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Classifier with the given options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		nTrees:          100,
		minSamplesSplit: 2,
		rng:             rand.New(rand.NewSource(42)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NumTrees returns the configured ensemble size.
func (c *Classifier) NumTrees() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nTrees
}

// Fit trains the forest on rows x with label codes y.
func (c *Classifier) Fit(x [][]float64, y []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(x) == 0 {
		return errors.New("empty training data")
	}
	if len(x) != len(y) {
		return fmt.Errorf("%d rows but %d labels", len(x), len(y))
	}

	c.nFeatures = len(x[0])
	c.nClasses = 0
	for _, code := range y {
		if code < 0 {
			return fmt.Errorf("negative label code %d", code)
		}
		if code+1 > c.nClasses {
			c.nClasses = code + 1
		}
	}

	// Features considered per split: sqrt of the feature count.
	mtry := int(math.Sqrt(float64(c.nFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	c.trees = make([]*tree, c.nTrees)
	for i := range c.trees {
		sample := c.bootstrap(len(x))
		c.trees[i] = &tree{Root: c.grow(x, y, sample, mtry, 0)}
	}
	c.trained = true
	return nil
}

// bootstrap draws n row indices with replacement.
func (c *Classifier) bootstrap(n int) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = c.rng.Intn(n)
	}
	return sample
}

// Predict returns the majority-vote label code per row. Ties go to the
// lowest code.
func (c *Classifier) Predict(x [][]float64) ([]int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return nil, errors.New("model not trained")
	}

	out := make([]int, len(x))
	for i, row := range x {
		if len(row) != c.nFeatures {
			return nil, fmt.Errorf("row has %d features, model trained on %d", len(row), c.nFeatures)
		}
		votes := make([]int, c.nClasses)
		for _, t := range c.trees {
			votes[t.predict(row)]++
		}
		best := 0
		for class, n := range votes {
			if n > votes[best] {
				best = class
			}
		}
		out[i] = best
	}
	return out, nil
}

// Save serializes the trained model.
func (c *Classifier) Save() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return nil, errors.New("model not trained")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range []any{c.nTrees, c.maxDepth, c.nClasses, c.nFeatures, c.trees} {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Load restores a trained model.
func (c *Classifier) Load(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))
	for _, v := range []any{&c.nTrees, &c.maxDepth, &c.nClasses, &c.nFeatures, &c.trees} {
		if err := dec.Decode(v); err != nil {
			return err
		}
	}
	c.trained = true
	return nil
}
