package orchestrator

import "github.com/ShayCichocki/maestro/pkg/models"

// RunState accumulates completion data over one run. It has a single owner
// (the strategy loop driving the run) and is passed by reference only
// within that run's scope; no state survives between runs.
//
// The dispatcher reads it between levels, never concurrently with a level's
// workers, so no locking is needed.
type RunState struct {
	// completed holds the IDs of tasks that reached complete status.
	completed map[string]bool
	// results maps completed task ID to its result payload.
	results map[string]any
}

// NewRunState creates empty run state.
func NewRunState() *RunState {
	return &RunState{
		completed: make(map[string]bool),
		results:   make(map[string]any),
	}
}

// Record notes a task's terminal result. Only complete results are made
// available to dependents.
func (s *RunState) Record(task *models.Task, result *models.TaskResult) {
	if result.Succeeded() {
		s.completed[task.ID] = true
		s.results[task.ID] = result.Result
	}
}

// Completed reports whether the task with the given ID completed.
func (s *RunState) Completed(id string) bool {
	return s.completed[id]
}

// DependencyResults gathers the result payloads for the given prerequisite
// IDs. The second return lists prerequisites with no available result.
func (s *RunState) DependencyResults(deps []string) (map[string]any, []string) {
	if len(deps) == 0 {
		return nil, nil
	}

	available := make(map[string]any, len(deps))
	var missing []string
	for _, dep := range deps {
		if s.completed[dep] {
			available[dep] = s.results[dep]
		} else {
			missing = append(missing, dep)
		}
	}
	return available, missing
}
