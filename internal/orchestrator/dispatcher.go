package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// executeFunc runs a single task to a terminal result. It must not panic;
// the engine's safeExecute wrapper satisfies this.
type executeFunc func(ctx context.Context, task *models.Task) *models.TaskResult

// Dispatcher executes the tasks of one dependency level through a bounded
// pool of workers.
//
// Guarantees: every submitted task yields exactly one TaskResult, no task
// executes twice, result order matches submission order regardless of
// completion order, and RunLevel does not return until all in-flight work
// has finished.
type Dispatcher struct {
	// maxConcurrency caps simultaneously in-flight tasks per level.
	maxConcurrency int
	emitter        *EventEmitter
}

// NewDispatcher creates a dispatcher with the given concurrency cap.
// A cap below 1 is treated as 1.
func NewDispatcher(maxConcurrency int, emitter *EventEmitter) *Dispatcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Dispatcher{maxConcurrency: maxConcurrency, emitter: emitter}
}

// RunLevel executes one level of tasks and returns results in submission
// order.
//
// Before dispatch, each task's payload is enriched with the results of its
// prerequisites drawn from strictly earlier levels via state. A task with
// any prerequisite result unavailable is short-circuited to a failed
// MissingDependencyData result without ever reaching a worker; its siblings
// are unaffected.
func (d *Dispatcher) RunLevel(ctx context.Context, tasks []*models.Task, state *RunState, execute executeFunc) []*models.TaskResult {
	results := make([]*models.TaskResult, len(tasks))

	// Enrichment and short-circuit pass, in submission order.
	var pending []int
	for i, task := range tasks {
		deps := task.Dependencies()
		if len(deps) == 0 {
			pending = append(pending, i)
			continue
		}

		available, missing := state.DependencyResults(deps)
		if len(missing) > 0 {
			msg := fmt.Sprintf("missing dependency data: %s", strings.Join(missing, ", "))
			results[i] = models.NewFailedResult(task.ID, models.ErrorKindMissingDependency, msg)
			d.emitter.Emit(Event{
				Type:    EventDependencyMissing,
				TaskID:  task.ID,
				Message: msg,
			})
			debugLog("[dispatcher] short-circuiting task %s: %s", task.ID, msg)
			continue
		}

		task.AttachDependencyResults(available)
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		return results
	}

	workers := d.maxConcurrency
	if len(pending) < workers {
		workers = len(pending)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = execute(ctx, tasks[idx])
			}
		}()
	}

	for _, idx := range pending {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}
