// Package iforest implements an isolation-forest anomaly detector.
// Random axis-aligned splits isolate anomalous rows in fewer steps
// than normal ones; the path length through an ensemble of such trees
// yields a score, and the contamination fraction calibrates the
// decision threshold.
package iforest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/trafficlens/trafficlens/pkg/models"
)

// eulerMascheroni approximates the harmonic number in the average
// path-length normalizer.
const eulerMascheroni = 0.5772156649

// Detector is an ensemble of isolation trees.
type Detector struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	sampleSize    int
	contamination float64
	rng           *rand.Rand

	// Trained model
	trees     []*itree
	threshold float64
	norm      float64 // average path length for the training sample size
	trained   bool
}

// itree is a single isolation tree. Fields are exported for gob.
type itree struct {
	Root *inode
}

// inode is a random split or a terminal holding its sample count.
type inode struct {
	Feature int
	Value   float64
	Left    *inode
	Right   *inode
	Size    int
}

// Option configures a Detector.
type Option func(*Detector)

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(d *Detector) {
		d.nTrees = n
	}
}

// WithSampleSize sets the subsample drawn for each tree.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		d.sampleSize = n
	}
}

// WithContamination sets the expected anomaly proportion used to
// calibrate the threshold.
func WithContamination(c float64) Option {
	return func(d *Detector) {
		d.contamination = c
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(d *Detector) {
		d.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Detector. Defaults follow models.DefaultConfig: 100
// trees, 256-row subsamples, contamination 0.1, seed 42.
func New(opts ...Option) *Detector {
	cfg := models.DefaultConfig()
	d := &Detector{
		nTrees:        100,
		sampleSize:    256,
		contamination: cfg.Contamination,
		threshold:     0.5,
		rng:           rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fit trains the detector on unlabeled feature rows and calibrates the
// anomaly threshold so roughly the contamination fraction of the
// training rows scores above it.
func (d *Detector) Fit(x [][]float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(x) == 0 {
		return errors.New("empty training data")
	}
	nFeatures := len(x[0])

	sampleSize := d.sampleSize
	if sampleSize > len(x) {
		sampleSize = len(x)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize) + 1)))

	d.trees = make([]*itree, d.nTrees)
	for i := range d.trees {
		indices := d.rng.Perm(len(x))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = x[idx]
		}
		d.trees[i] = &itree{Root: d.split(sample, nFeatures, 0, maxDepth)}
	}
	d.norm = pathNorm(float64(sampleSize))
	if d.norm == 0 {
		d.norm = 1
	}
	d.trained = true

	if d.contamination > 0 {
		scores := d.scores(x)
		sorted := make([]float64, len(scores))
		copy(sorted, scores)
		sort.Float64s(sorted)
		d.threshold = stat.Quantile(1-d.contamination, stat.Empirical, sorted, nil)
	}
	return nil
}

// split recursively grows an isolation tree over the sample.
func (d *Detector) split(sample [][]float64, nFeatures, depth, maxDepth int) *inode {
	n := len(sample)
	if depth >= maxDepth || n <= 1 {
		return &inode{Size: n}
	}

	feature := d.rng.Intn(nFeatures)
	lo, hi := sample[0][feature], sample[0][feature]
	for _, row := range sample[1:] {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	if lo == hi {
		return &inode{Size: n}
	}

	value := lo + d.rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range sample {
		if row[feature] < value {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	return &inode{
		Feature: feature,
		Value:   value,
		Left:    d.split(left, nFeatures, depth+1, maxDepth),
		Right:   d.split(right, nFeatures, depth+1, maxDepth),
	}
}

// Scores returns the anomaly score in [0, 1] per row.
func (d *Detector) Scores(x [][]float64) ([]float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.trained {
		return nil, errors.New("model not trained")
	}
	return d.scores(x), nil
}

func (d *Detector) scores(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = d.score(row)
	}
	return out
}

func (d *Detector) score(row []float64) float64 {
	var total float64
	for _, t := range d.trees {
		total += depthOf(row, t.Root, 0)
	}
	avg := total / float64(len(d.trees))
	return math.Pow(2, -avg/d.norm)
}

// Verdicts maps each row to Normal or Anomaly using the calibrated
// threshold.
func (d *Detector) Verdicts(x [][]float64) ([]models.Verdict, error) {
	scores, err := d.Scores(x)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	threshold := d.threshold
	d.mu.RUnlock()

	out := make([]models.Verdict, len(scores))
	for i, s := range scores {
		if s >= threshold {
			out[i] = models.Anomaly
		} else {
			out[i] = models.Normal
		}
	}
	return out, nil
}

// Threshold returns the calibrated decision threshold.
func (d *Detector) Threshold() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// depthOf walks a row down one tree, adding the expected remaining
// depth at the terminal.
func depthOf(row []float64, n *inode, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		return float64(depth) + pathNorm(float64(n.Size))
	}
	if row[n.Feature] < n.Value {
		return depthOf(row, n.Left, depth+1)
	}
	return depthOf(row, n.Right, depth+1)
}

// pathNorm is the average path length of an unsuccessful BST search
// over n samples, used to normalize scores.
func pathNorm(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}

// Save serializes the trained model.
func (d *Detector) Save() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.trained {
		return nil, errors.New("model not trained")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range []any{d.nTrees, d.sampleSize, d.contamination, d.threshold, d.norm, d.trees} {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Load restores a trained model.
func (d *Detector) Load(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dec := gob.NewDecoder(bytes.NewBuffer(data))
	for _, v := range []any{&d.nTrees, &d.sampleSize, &d.contamination, &d.threshold, &d.norm, &d.trees} {
		if err := dec.Decode(v); err != nil {
			return err
		}
	}
	d.trained = true
	return nil
}
