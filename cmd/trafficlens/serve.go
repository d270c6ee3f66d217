package main

import (
	"github.com/spf13/cobra"

	"github.com/trafficlens/trafficlens/internal/server"
)

var listenFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()
		if listenFlag != "" {
			cfg.Listen = listenFlag
		}
		return server.New(cfg, logger).Run()
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
