package main

import (
	"fmt"
	"os"

	"github.com/danmuck/gfxtrace/internal/config"
	"github.com/danmuck/gfxtrace/internal/logging"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gfxtracectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gfxtracectl",
		Short: "Inspect and serve graphics API captures",
		Long: `gfxtracectl decodes captured atom streams and serves them to clients
over HTTP or a framed TCP stream.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to gfxtrace.toml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(capturesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(atomsCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(configCmd)
	return rootCmd
}

// loadConfig reads --config when given and falls back to defaults.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
