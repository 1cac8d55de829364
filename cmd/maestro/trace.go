package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/state"
	"github.com/ShayCichocki/maestro/pkg/models"
)

var (
	traceTask  string
	traceLimit int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect persisted execution traces",
	Long: `List execution traces from the project-local trace store
(.maestro/traces.db). Traces are only persisted when trace.persist is
enabled in configuration.`,
	RunE: showTraces,
}

func init() {
	traceCmd.Flags().StringVar(&traceTask, "task", "", "Show traces for a single task ID")
	traceCmd.Flags().IntVar(&traceLimit, "limit", 20, "Maximum traces to show")
}

func showTraces(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	path := state.ProjectDBPath(cwd)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no trace store at %s (enable trace.persist and run first)", path)
	}

	db, err := state.Open(path)
	if err != nil {
		return fmt.Errorf("open trace store: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate trace store: %w", err)
	}

	traces, err := loadTraces(db)
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		fmt.Println("no traces recorded")
		return nil
	}

	for _, tr := range traces {
		mark := color.GreenString("✓")
		if tr.Error != "" {
			mark = color.RedString("✗")
		}
		fmt.Printf("%s %s  %s  %-10s %8s %7d tok $%.4f",
			mark,
			tr.StartTime.Local().Format("2006-01-02 15:04:05"),
			tr.TaskID[:min(8, len(tr.TaskID))],
			tr.WorkerName,
			tr.Duration().Round(time.Millisecond),
			tr.TokensUsed,
			tr.Cost)
		if tr.Error != "" {
			fmt.Printf("  %s", tr.Error)
		}
		fmt.Println()
	}
	return nil
}

func loadTraces(db *state.DB) ([]*models.ExecutionTrace, error) {
	if traceTask != "" {
		traces, err := db.TracesForTask(traceTask)
		if err != nil {
			return nil, fmt.Errorf("query traces: %w", err)
		}
		return traces, nil
	}
	traces, err := db.RecentTraces(traceLimit)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	return traces, nil
}
