// Package decompose turns an objective into an executable plan: a set of
// tasks, their declared prerequisites, and the strategy to run them under.
package decompose

import (
	"context"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Plan is the planner's output, ready to hand to the engine.
type Plan struct {
	// Strategy selects how the engine runs the tasks.
	Strategy models.ExecutionStrategy
	// Tasks in declaration order.
	Tasks []*models.Task
	// Dependencies maps task ID to prerequisite task IDs. The engine
	// validates and repairs this mapping; the planner only declares it.
	Dependencies map[string][]string
}

// Planner produces a plan for an objective.
type Planner interface {
	Plan(ctx context.Context, objective string) (*Plan, error)
}
