package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Dependency-aware task orchestration engine",
	Long: `Maestro runs sets of interdependent tasks across a pool of model-backed
workers.

A plan declares tasks and their prerequisites; maestro validates the
dependency graph, levels it, and executes each level with bounded
concurrency under a chosen strategy:
  sequential: one task at a time in input order, fail-fast
  parallel:   dependency-level waves, results flow to dependents
  consensus:  one task on every worker, highest confidence wins

Identical work is served from a shared TTL+LRU result cache.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(versionCmd)
}
