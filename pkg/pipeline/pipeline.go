// Package pipeline wires the full analysis flow: ingestion, feature
// preparation, training of the classifier and anomaly detector, and
// evaluation. Every run rebuilds all state from scratch; nothing is
// persisted between interactions.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/trafficlens/trafficlens/pkg/dataset"
	"github.com/trafficlens/trafficlens/pkg/eval"
	"github.com/trafficlens/trafficlens/pkg/features"
	"github.com/trafficlens/trafficlens/pkg/models"
	"github.com/trafficlens/trafficlens/pkg/models/forest"
	"github.com/trafficlens/trafficlens/pkg/models/iforest"
)

// Options configures one pipeline run.
type Options struct {
	// Estimators is the classifier's tree count.
	Estimators int
	// Seed drives the split and both models.
	Seed int64
	// TestFraction is the held-out share of rows.
	TestFraction float64
	// Contamination calibrates the anomaly detector.
	Contamination float64
	// ChunkSize bounds ingestion memory; zero uses the default.
	ChunkSize int
	// GlobalMedians switches imputation statistics from per-chunk to
	// one global pass.
	GlobalMedians bool
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	cfg := models.DefaultConfig()
	return Options{
		Estimators:    100,
		Seed:          cfg.Seed,
		TestFraction:  0.2,
		Contamination: cfg.Contamination,
	}
}

func (o Options) validate() error {
	if o.Estimators < 1 {
		return fmt.Errorf("pipeline: estimators must be positive, got %d", o.Estimators)
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		return fmt.Errorf("pipeline: test fraction %v out of (0, 1)", o.TestFraction)
	}
	return nil
}

// Result holds everything one run produced. It lives only for the
// session; a re-upload or hyperparameter change discards it.
type Result struct {
	Frame      *dataset.Frame
	Prepared   *features.Prepared
	Split      *features.Split
	Classifier *forest.Classifier
	Detector   *iforest.Detector
	Report     *eval.Report
}

// Run executes the pipeline synchronously on the calling goroutine.
// The context is only consulted between stages; a running fit is not
// interruptible.
func Run(ctx context.Context, sources []dataset.Source, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	frame, err := dataset.Load(sources, dataset.Options{
		ChunkSize:     opts.ChunkSize,
		GlobalMedians: opts.GlobalMedians,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("batch ingested",
		zap.Int("rows", frame.NumRows()),
		zap.Int("columns", frame.NumCols()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared, err := features.Prepare(frame)
	if err != nil {
		return nil, err
	}
	logger.Info("features prepared",
		zap.Int("feature_columns", len(prepared.ColumnNames)),
		zap.Any("class_distribution", classDistribution(prepared)))

	split, err := features.StratifiedSplit(prepared.X, prepared.Y, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	classifier := forest.New(forest.WithTrees(opts.Estimators), forest.WithSeed(opts.Seed))
	if err := classifier.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, fmt.Errorf("pipeline: train classifier: %w", err)
	}

	detector := iforest.New(
		iforest.WithContamination(opts.Contamination),
		iforest.WithSeed(opts.Seed),
	)
	if err := detector.Fit(split.XTrain); err != nil {
		return nil, fmt.Errorf("pipeline: train anomaly detector: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	predictions, err := classifier.Predict(split.XTest)
	if err != nil {
		return nil, err
	}
	report, err := eval.Evaluate(split.YTest, predictions, prepared.Encoder.Classes)
	if err != nil {
		return nil, err
	}
	logger.Info("evaluation complete",
		zap.Int("estimators", opts.Estimators),
		zap.Int("test_rows", len(split.YTest)),
		zap.Float64("accuracy", report.Accuracy))

	return &Result{
		Frame:      frame,
		Prepared:   prepared,
		Split:      split,
		Classifier: classifier,
		Detector:   detector,
		Report:     report,
	}, nil
}

// DetectAnomalies scores the held-out partition with the detector and
// joins the verdicts back onto the combined batch by original row
// index. Rows outside the test partition stay NotScored. Re-running
// against the same trained detector yields the same flagged set.
func (r *Result) DetectAnomalies() (*eval.AnomalyScan, error) {
	verdicts, err := r.Detector.Verdicts(r.Split.XTest)
	if err != nil {
		return nil, err
	}
	return eval.JoinVerdicts(r.Frame.NumRows(), r.Split.TestIndex, verdicts)
}

// Summary renders a short textual description of the batch for the
// advisory call.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows, %d columns.", r.Frame.NumRows(), r.Frame.NumCols())
	fmt.Fprintf(&b, " Columns: %s.", strings.Join(r.Frame.Header(), ", "))
	fmt.Fprintf(&b, " Class distribution: %s.", formatDistribution(r.Prepared))
	fmt.Fprintf(&b, " Classifier accuracy on held-out rows: %.4f.", r.Report.Accuracy)
	return b.String()
}

func classDistribution(p *features.Prepared) map[string]int {
	out := make(map[string]int, len(p.ClassCounts))
	for code, n := range p.ClassCounts {
		out[p.Encoder.Inverse(code)] = n
	}
	return out
}

func formatDistribution(p *features.Prepared) string {
	parts := make([]string, len(p.ClassCounts))
	for code, n := range p.ClassCounts {
		parts[code] = fmt.Sprintf("%s=%d", p.Encoder.Inverse(code), n)
	}
	return strings.Join(parts, ", ")
}
