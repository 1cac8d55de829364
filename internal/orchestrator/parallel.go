package orchestrator

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/maestro/internal/graph"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// runParallel executes tasks in dependency-level waves. Each level runs to
// full resolution (including failures) through the bounded dispatcher
// before the next level starts; completed results are carried forward as
// inputs to later levels.
func (e *Engine) runParallel(ctx context.Context, runID string, tasks []*models.Task, declared map[string][]string) ([]*models.TaskResult, error) {
	g := e.validate(runID, tasks, declared)

	if g.HasCycle() {
		e.emitter.Emit(Event{Type: EventCycleDetected, RunID: runID})
		e.logger.Log("[engine] run %s: cycle in declared dependencies, residual will run best-effort", runID)
	}

	levels, unresolved := graph.Levelize(g)
	if len(unresolved) > 0 {
		// Tasks trapped in a cycle still get exactly one result each: they
		// run as a final best-effort level and short-circuit on their
		// never-satisfied prerequisites.
		e.emitter.Emit(Event{
			Type:    EventUnresolvedResidual,
			RunID:   runID,
			Message: fmt.Sprintf("%d tasks unresolved after leveling: %v", len(unresolved), unresolved),
		})
		levels = append(levels, graph.Level(unresolved))
	}

	e.logger.Log("[engine] run %s: %d levels", runID, len(levels))

	byID := make(map[string]*models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	state := NewRunState()
	var all []*models.TaskResult

	for i, level := range levels {
		levelTasks := make([]*models.Task, 0, len(level))
		for _, id := range level {
			levelTasks = append(levelTasks, byID[id])
		}

		e.emitter.Emit(Event{
			Type:    EventLevelStarted,
			RunID:   runID,
			Level:   i,
			Message: fmt.Sprintf("%d tasks", len(levelTasks)),
		})
		e.logger.Log("[engine] run %s: level %d with %d tasks", runID, i, len(levelTasks))

		results := e.dispatcher.RunLevel(ctx, levelTasks, state, func(ctx context.Context, task *models.Task) *models.TaskResult {
			return e.safeExecute(ctx, runID, task)
		})

		for j, result := range results {
			state.Record(levelTasks[j], result)
		}
		all = append(all, results...)

		e.emitter.Emit(Event{Type: EventLevelCompleted, RunID: runID, Level: i})
	}

	return all, nil
}
