package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/cache"
	"github.com/ShayCichocki/maestro/internal/config"
	"github.com/ShayCichocki/maestro/internal/decompose"
	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/internal/state"
	"github.com/ShayCichocki/maestro/internal/tui"
	"github.com/ShayCichocki/maestro/internal/worker"
	"github.com/ShayCichocki/maestro/pkg/models"
)

var (
	runPlanFile string
	runStrategy string
	runHeadless bool
	runTimeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [objective]",
	Short: "Run an objective or a plan file",
	Long: `Execute a set of tasks.

With --plan, the tasks and their dependencies come from a YAML plan file
and the objective argument is optional. Without --plan, the objective is
decomposed into tasks by the planning model.

The strategy defaults to the plan's (or the configured default); override
it with --strategy sequential|parallel|consensus.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runObjective,
}

func init() {
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "YAML plan file to execute")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "Execution strategy: sequential, parallel, or consensus")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the TUI monitor")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Overall run timeout (0 for none)")
}

func runObjective(cmd *cobra.Command, args []string) error {
	objective := ""
	if len(args) > 0 {
		objective = args[0]
	}
	if runPlanFile == "" && objective == "" {
		return fmt.Errorf("an objective or --plan is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	plan, err := buildPlan(ctx, cfg, runPlanFile, objective)
	if err != nil {
		return err
	}

	strategy := plan.Strategy
	if runStrategy != "" {
		strategy = models.ExecutionStrategy(runStrategy)
	}
	if strategy == "" {
		strategy = models.ExecutionStrategy(cfg.Engine.DefaultStrategy)
	}

	engine, resultCache, cleanup, err := buildEngine(cfg, registry)
	if err != nil {
		return err
	}
	defer cleanup()

	// Pick up project config edits during long runs; cache limits are the
	// only settings that can change while the engine is live.
	if projectConfig := config.GetProjectConfigPath(); projectConfig != "" {
		stop, err := config.Watch(projectConfig,
			func(next *config.Config) {
				resultCache.Resize(cache.Options{
					TTL:      next.Cache.TTL,
					MaxItems: next.Cache.MaxItems,
					MaxBytes: int64(next.Cache.MaxMemMB) * 1024 * 1024,
				})
			},
			func(err error) {
				fmt.Fprintf(os.Stderr, "%s config reload failed: %v\n", color.YellowString("⚠"), err)
			})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s config watch unavailable: %v\n", color.YellowString("⚠"), err)
		} else {
			defer stop()
		}
	}

	var results []*models.TaskResult
	var runErr error
	if cfg.TUI.Enabled && !runHeadless {
		results, runErr = runWithMonitor(ctx, engine, strategy, plan)
	} else {
		results, runErr = engine.Run(ctx, strategy, plan.Tasks, plan.Dependencies)
		engine.Close()
	}

	printSummary(results, runErr)
	if dropped := engine.DroppedEventCount(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "%s %d events dropped (slow consumer)\n", color.YellowString("⚠"), dropped)
	}
	return runErr
}

// buildRegistry assembles the worker pool from configuration: one Claude
// worker per capability, plus an Ollama worker when enabled.
func buildRegistry(cfg *config.Config) (*worker.Registry, error) {
	registry := worker.NewRegistry()

	capabilities := []models.Capability{
		models.CapabilityResearch,
		models.CapabilityAnalysis,
		models.CapabilitySynthesis,
		models.CapabilityValidation,
		models.CapabilityGeneration,
	}
	for _, capability := range capabilities {
		w, err := worker.NewClaudeWorker(claudeConfigFor(cfg, "", capability))
		if err != nil {
			return nil, fmt.Errorf("create claude worker: %w", err)
		}
		registry.Register(w)
	}

	if cfg.Ollama.Enabled {
		w, err := worker.NewOllamaWorker("", models.CapabilityAnalysis, cfg.Ollama.Model)
		if err != nil {
			return nil, fmt.Errorf("create ollama worker: %w", err)
		}
		registry.Register(w)
	}

	return registry, nil
}

func claudeConfigFor(cfg *config.Config, name string, capability models.Capability) worker.ClaudeConfig {
	return worker.ClaudeConfig{
		Name:          name,
		Capability:    capability,
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		MaxTokens:     int64(cfg.Anthropic.MaxTokens),
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}
}

// buildPlan produces the plan: from the plan file when given, otherwise by
// asking the planning model to decompose the objective.
func buildPlan(ctx context.Context, cfg *config.Config, planPath, objective string) (*decompose.Plan, error) {
	var planner decompose.Planner
	if planPath != "" {
		planner = decompose.NewFilePlanner(planPath)
	} else {
		completer, err := worker.NewClaudeWorker(claudeConfigFor(cfg, "planner", models.CapabilitySynthesis))
		if err != nil {
			return nil, fmt.Errorf("create planner: %w", err)
		}
		planner = decompose.NewClaudePlanner(completer, models.ExecutionStrategy(cfg.Engine.DefaultStrategy))
	}

	plan, err := planner.Plan(ctx, objective)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	return plan, nil
}

// buildEngine assembles the engine from configuration, wiring the result
// cache, debug logger, and optional SQLite trace sink. The cache is returned
// alongside the engine so the config watcher can retune it mid-run.
func buildEngine(cfg *config.Config, registry *worker.Registry) (*orchestrator.Engine, *cache.Cache, func(), error) {
	resultCache := cache.New(cache.Options{
		TTL:      cfg.Cache.TTL,
		MaxItems: cfg.Cache.MaxItems,
		MaxBytes: int64(cfg.Cache.MaxMemMB) * 1024 * 1024,
	})
	opts := []orchestrator.Option{
		orchestrator.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		orchestrator.WithEventBuffer(cfg.Engine.EventBuffer),
		orchestrator.WithCache(resultCache),
	}

	cleanup := func() {}

	if cfg.Engine.DebugLogPath != "" {
		logger, err := orchestrator.NewDebugLogger(cfg.Engine.DebugLogPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open debug log: %w", err)
		}
		orchestrator.SetDebugLogger(logger)
		opts = append(opts, orchestrator.WithLogger(logger))
		cleanup = func() { logger.Close() }
	}

	if cfg.Trace.Persist {
		cwd, err := os.Getwd()
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("get working directory: %w", err)
		}
		db, err := state.OpenProject(cwd)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("open trace store: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			cleanup()
			return nil, nil, nil, fmt.Errorf("migrate trace store: %w", err)
		}
		if cfg.Trace.RetainFor > 0 {
			db.PurgeOldTraces(cfg.Trace.RetainFor)
		}
		opts = append(opts, orchestrator.WithTraceSink(db))
		prev := cleanup
		cleanup = func() { db.Close(); prev() }
	}

	return orchestrator.New(registry, opts...), resultCache, cleanup, nil
}

// runWithMonitor runs the engine under the bubbletea monitor, pumping
// engine events into the program until the run finishes.
func runWithMonitor(ctx context.Context, engine *orchestrator.Engine, strategy models.ExecutionStrategy, plan *decompose.Plan) ([]*models.TaskResult, error) {
	program, _ := tui.NewProgram()
	done := make(chan tui.RunDoneMsg, 1)

	go tui.Pump(program, engine.Events(), done)

	var results []*models.TaskResult
	var runErr error
	go func() {
		results, runErr = engine.Run(ctx, strategy, plan.Tasks, plan.Dependencies)
		engine.Close()
		done <- tui.RunDoneMsg{Summary: orchestrator.Summarize(results), Err: runErr}
		close(done)
	}()

	if _, err := program.Run(); err != nil {
		return results, fmt.Errorf("monitor: %w", err)
	}
	return results, runErr
}

// printSummary writes the run outcome to stdout.
func printSummary(results []*models.TaskResult, runErr error) {
	s := orchestrator.Summarize(results)

	fmt.Println()
	if runErr != nil {
		fmt.Printf("%s run failed: %v\n", color.RedString("✗"), runErr)
	} else if s.Failed > 0 {
		fmt.Printf("%s run finished with failures\n", color.YellowString("⚠"))
	} else {
		fmt.Printf("%s run complete\n", color.GreenString("✓"))
	}
	fmt.Printf("  tasks: %d  ok: %d  failed: %d\n", s.TaskCount, s.Successful, s.Failed)
	fmt.Printf("  time: %s  tokens: %d  cost: $%.4f\n", s.TotalTime.Round(time.Millisecond), s.TotalTokens, s.TotalCost)

	for _, r := range results {
		if r.Status == models.TaskStatusFailed {
			fmt.Printf("  %s %s [%s] %s\n", color.RedString("✗"), r.TaskID, r.ErrorKind, r.Error)
		}
	}
}
