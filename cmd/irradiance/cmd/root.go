// Package cmd wires the irradiance engine's configuration knobs to a
// cobra CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "irradiance",
	Short: "Trace annual direct-sky irradiance across a building footprint dataset",
}

var logger *zap.Logger

func init() {
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "irradiance: could not start logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
