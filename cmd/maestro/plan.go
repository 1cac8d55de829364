package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/config"
	"github.com/ShayCichocki/maestro/internal/graph"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan [objective]",
	Short: "Produce and inspect a plan without executing it",
	Long: `Show the plan for an objective or a plan file: the tasks, their
declared prerequisites, and the dependency levels they would execute in.
Nothing is executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFile, "plan", "", "YAML plan file to inspect")
}

func showPlan(cmd *cobra.Command, args []string) error {
	objective := ""
	if len(args) > 0 {
		objective = args[0]
	}
	if planFile == "" && objective == "" {
		return fmt.Errorf("an objective or --plan is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	plan, err := buildPlan(context.Background(), cfg, planFile, objective)
	if err != nil {
		return err
	}

	fmt.Printf("strategy: %s\n", plan.Strategy)
	fmt.Printf("tasks: %d\n\n", len(plan.Tasks))
	for _, task := range plan.Tasks {
		fmt.Printf("  %s %s [%s/%s] %s\n",
			color.CyanString(task.ID[:8]), task.Objective, task.Type, task.Priority, depsLabel(plan.Dependencies[task.ID]))
	}

	ids := make([]string, len(plan.Tasks))
	for i, task := range plan.Tasks {
		ids[i] = task.ID
	}
	g, warnings := graph.Validate(ids, plan.Dependencies)
	for _, w := range warnings {
		fmt.Printf("  %s %s\n", color.YellowString("⚠"), w)
	}
	if g.HasCycle() {
		fmt.Printf("\n%s dependency cycle detected\n", color.RedString("✗"))
	}

	levels, unresolved := graph.Levelize(g)
	fmt.Println()
	for i, level := range levels {
		fmt.Printf("  level %d:", i)
		for _, id := range level {
			fmt.Printf(" %s", id[:8])
		}
		fmt.Println()
	}
	if len(unresolved) > 0 {
		fmt.Printf("  %s unresolved:", color.YellowString("⚠"))
		for _, id := range unresolved {
			fmt.Printf(" %s", id[:8])
		}
		fmt.Println()
	}
	return nil
}

func depsLabel(deps []string) string {
	if len(deps) == 0 {
		return ""
	}
	label := "after"
	for _, dep := range deps {
		label += " " + dep[:8]
	}
	return "(" + label + ")"
}
