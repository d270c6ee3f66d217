package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trafficlens/trafficlens/pkg/dataset"
	"github.com/trafficlens/trafficlens/pkg/dataset/pcapconv"
	"github.com/trafficlens/trafficlens/pkg/pipeline"
)

var estimatorsFlag int

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Train and evaluate once over the given traffic files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validEstimators(estimatorsFlag) {
			return fmt.Errorf("estimators must be 50..300 in steps of 50, got %d", estimatorsFlag)
		}
		defer logger.Sync()

		sources := make([]dataset.Source, 0, len(args))
		var closers []*os.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()

		for _, path := range args {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".pcap", ".pcapng", ".cap":
				data, err := pcapconv.ToCSV(path)
				if err != nil {
					return err
				}
				sources = append(sources, dataset.Source{Name: path, Reader: bytes.NewReader(data)})
			default:
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				closers = append(closers, f)
				sources = append(sources, dataset.Source{Name: path, Reader: f})
			}
		}

		opts := pipeline.DefaultOptions()
		opts.Estimators = estimatorsFlag
		opts.Seed = cfg.Pipeline.Seed
		opts.TestFraction = cfg.Pipeline.TestFraction
		opts.Contamination = cfg.Pipeline.Contamination
		opts.ChunkSize = cfg.Pipeline.ChunkSize
		opts.GlobalMedians = cfg.Pipeline.GlobalMedians

		result, err := pipeline.Run(cmd.Context(), sources, opts, logger)
		if err != nil {
			return err
		}

		fmt.Printf("Accuracy: %.4f\n\n", result.Report.Accuracy)
		fmt.Println(result.Report.Text())

		scan, err := result.DetectAnomalies()
		if err != nil {
			return err
		}
		fmt.Printf("Anomalies flagged: %d of %d scored rows\n", len(scan.Flagged), scan.Scored)
		return nil
	},
}

// validEstimators reports whether n sits on the same 50 to 300
// step-50 grid the dashboard slider exposes.
func validEstimators(n int) bool {
	return n >= 50 && n <= 300 && n%50 == 0
}

func init() {
	analyzeCmd.Flags().IntVar(&estimatorsFlag, "estimators", 100, "number of trees in the classifier (50-300, step 50)")
	rootCmd.AddCommand(analyzeCmd)
}
