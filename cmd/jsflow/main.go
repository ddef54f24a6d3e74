// Package main implements the jsflow CLI, a batch command that runs the
// deterministic dataflow-fact pipeline over one project and writes its
// canonical JSONL outputs.
//
// # File Index
//
//   - main.go    - entry point, rootCmd, global flags
//   - analyze.go - analyzeCmd, runAnalyze(), output writers
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jsflow/internal/logging"
)

const version = "0.1.0"

var (
	verbose bool
	quiet   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "jsflow",
	Short:   "jsflow computes deterministic intra/interprocedural dataflow facts for JS/TS",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logging.LevelInfo
		switch {
		case quiet:
			level = logging.LevelQuiet
		case verbose:
			level = logging.LevelDebug
		}
		var err error
		logger, err = logging.New(level)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
