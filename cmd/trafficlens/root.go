package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trafficlens/trafficlens/internal/config"
)

var (
	cfgFile string
	debug   bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "trafficlens",
	Short: "Interactive intrusion-detection dashboard for network traffic",
	Long: `TrafficLens ingests network-traffic CSV (or PCAP) files, trains a
random-forest classifier and an isolation-forest anomaly detector on
them, and reports evaluation metrics and flagged rows.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main().
func Execute() {
	cobra.OnInitialize(initialize)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, optional)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initialize() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: create logger:", err)
		os.Exit(1)
	}
}
