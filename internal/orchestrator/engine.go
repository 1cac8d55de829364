package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ShayCichocki/maestro/internal/cache"
	"github.com/ShayCichocki/maestro/internal/graph"
	"github.com/ShayCichocki/maestro/internal/worker"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// DefaultMaxConcurrency caps simultaneously in-flight tasks per level when
// no explicit limit is configured.
const DefaultMaxConcurrency = 8

// Engine selects and runs one execution strategy end-to-end, propagating
// dependency outputs into downstream task inputs and aggregating results.
//
// The strategy is chosen once per run and never re-decided mid-run, except
// the cycle-detected fallback from sequential to parallel, which happens
// before any task executes.
type Engine struct {
	registry   *worker.Registry
	cache      *cache.Cache
	emitter    *EventEmitter
	traces     *TraceLog
	dispatcher *Dispatcher
	logger     *DebugLogger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	cache          *cache.Cache
	sink           TraceSink
	maxConcurrency int
	eventBuffer    int
	logger         *DebugLogger
}

// WithCache sets the shared result cache. By default an unbounded-TTL-free
// default cache is created.
func WithCache(c *cache.Cache) Option {
	return func(cfg *engineConfig) { cfg.cache = c }
}

// WithTraceSink forwards finished execution traces to the given sink.
func WithTraceSink(s TraceSink) Option {
	return func(cfg *engineConfig) { cfg.sink = s }
}

// WithMaxConcurrency caps simultaneously in-flight tasks per level.
func WithMaxConcurrency(n int) Option {
	return func(cfg *engineConfig) { cfg.maxConcurrency = n }
}

// WithEventBuffer sets the emitter's channel buffer size.
func WithEventBuffer(n int) Option {
	return func(cfg *engineConfig) { cfg.eventBuffer = n }
}

// WithLogger sets the debug logger used for scheduling decisions.
func WithLogger(l *DebugLogger) Option {
	return func(cfg *engineConfig) { cfg.logger = l }
}

// New creates an Engine over the given worker registry.
func New(registry *worker.Registry, opts ...Option) *Engine {
	cfg := &engineConfig{
		maxConcurrency: DefaultMaxConcurrency,
		eventBuffer:    100,
		logger:         NopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = cache.New(cache.Options{})
	}

	emitter := NewEventEmitter(cfg.eventBuffer)
	return &Engine{
		registry:   registry,
		cache:      cfg.cache,
		emitter:    emitter,
		traces:     NewTraceLog(cfg.sink),
		dispatcher: NewDispatcher(cfg.maxConcurrency, emitter),
		logger:     cfg.logger,
	}
}

// Events returns the engine's event channel for subscribers.
func (e *Engine) Events() <-chan Event {
	return e.emitter.Events()
}

// Close releases the engine's event channel. Call after the last run.
func (e *Engine) Close() {
	e.emitter.Close()
}

// Traces returns the process-lifetime execution trace log.
func (e *Engine) Traces() *TraceLog {
	return e.traces
}

// DroppedEventCount returns the number of events dropped by the emitter.
func (e *Engine) DroppedEventCount() uint64 {
	return e.emitter.DroppedCount()
}

// Run executes the task set under the given strategy and returns one
// TaskResult per executed task.
//
// declared is the prerequisite mapping supplied by the decomposition step;
// it is validated (repaired and checked for cycles) before anything runs.
// An unknown strategy is rejected immediately, before any dispatch.
func (e *Engine) Run(ctx context.Context, strategy models.ExecutionStrategy, tasks []*models.Task, declared map[string][]string) ([]*models.TaskResult, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, strategy)
	}
	if e.registry.Count() == 0 {
		return nil, ErrNoWorkers
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	runID := uuid.New().String()[:8]
	e.emitter.Emit(Event{
		Type:    EventRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("strategy=%s tasks=%d", strategy, len(tasks)),
	})
	e.logger.Log("[engine] run %s started: strategy=%s tasks=%d", runID, strategy, len(tasks))

	var results []*models.TaskResult
	var err error
	switch strategy {
	case models.StrategySequential:
		results, err = e.runSequential(ctx, runID, tasks, declared)
	case models.StrategyParallel:
		results, err = e.runParallel(ctx, runID, tasks, declared)
	case models.StrategyConsensus:
		results, err = e.runConsensus(ctx, runID, tasks[0])
	}

	e.emitter.Emit(Event{
		Type:    EventRunCompleted,
		RunID:   runID,
		Message: fmt.Sprintf("results=%d", len(results)),
		Err:     err,
	})
	return results, err
}

// validate builds the dependency graph for a run, emitting a warning event
// per repair, and syncs each task's constraints to the repaired graph so
// enrichment and short-circuiting agree with what was validated.
func (e *Engine) validate(runID string, tasks []*models.Task, declared map[string][]string) *graph.DependencyGraph {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}

	g, warnings := graph.Validate(ids, declared)
	for _, w := range warnings {
		e.emitter.Emit(Event{
			Type:    EventValidationWarning,
			RunID:   runID,
			TaskID:  w.TaskID,
			Message: w.String(),
		})
		e.logger.Log("[engine] validation: %s", w)
	}

	for _, task := range tasks {
		task.Constraints.Dependencies = g.Dependencies(task.ID)
	}
	return g
}

// runSequential executes tasks one at a time in input order, fail-fast.
//
// A cycle in the declared dependencies forces a fallback: the task set is
// treated as independent and executed under the parallel strategy instead.
// This is engine policy, decided here before any task runs.
func (e *Engine) runSequential(ctx context.Context, runID string, tasks []*models.Task, declared map[string][]string) ([]*models.TaskResult, error) {
	g := e.validate(runID, tasks, declared)

	if g.HasCycle() {
		e.emitter.Emit(Event{Type: EventCycleDetected, RunID: runID})
		e.emitter.Emit(Event{
			Type:    EventStrategyFallback,
			RunID:   runID,
			Message: "cycle detected, falling back to parallel with independent tasks",
		})
		e.logger.Log("[engine] run %s: cycle detected, sequential -> parallel fallback", runID)

		for _, task := range tasks {
			task.Constraints.Dependencies = nil
		}
		return e.runParallel(ctx, runID, tasks, map[string][]string{})
	}

	state := NewRunState()
	var results []*models.TaskResult

	for _, task := range tasks {
		var unmet []string
		for _, dep := range task.Dependencies() {
			if !state.Completed(dep) {
				unmet = append(unmet, dep)
			}
		}
		if len(unmet) > 0 {
			e.emitter.Emit(Event{
				Type:    EventSequentialHalt,
				RunID:   runID,
				TaskID:  task.ID,
				Message: fmt.Sprintf("unmet prerequisites: %v", unmet),
			})
			e.logger.Log("[engine] run %s halted at task %s: unmet prerequisites %v", runID, task.ID, unmet)
			break
		}

		available, _ := state.DependencyResults(task.Dependencies())
		task.AttachDependencyResults(available)

		result := e.safeExecute(ctx, runID, task)
		results = append(results, result)
		state.Record(task, result)

		if result.Status == models.TaskStatusFailed {
			e.emitter.Emit(Event{
				Type:    EventSequentialHalt,
				RunID:   runID,
				TaskID:  task.ID,
				Message: "task failed, halting run",
			})
			e.logger.Log("[engine] run %s halted at task %s: %s", runID, task.ID, result.Error)
			break
		}
	}

	return results, nil
}

// safeExecute routes a task to a worker and runs it, converting every
// failure mode (error return, panic, nil result) into a failed TaskResult.
func (e *Engine) safeExecute(ctx context.Context, runID string, task *models.Task) *models.TaskResult {
	w, fallback := e.registry.PickFor(task)
	if w == nil {
		return models.NewFailedResult(task.ID, models.ErrorKindExecution, "no workers registered")
	}
	if fallback {
		e.emitter.Emit(Event{
			Type:       EventRoutingFallback,
			RunID:      runID,
			TaskID:     task.ID,
			WorkerName: w.Name(),
			Message:    fmt.Sprintf("no worker matches capability %q, using first-registered", task.Type),
		})
		e.logger.Log("[engine] routing gap: task %s type %q -> fallback worker %s", task.ID, task.Type, w.Name())
	}
	return e.executeWith(ctx, runID, w, task, true)
}

// executeWith runs a task on a specific worker, consulting the shared
// result cache when useCache is set.
func (e *Engine) executeWith(ctx context.Context, runID string, w worker.Worker, task *models.Task, useCache bool) (res *models.TaskResult) {
	fingerprint := cache.Fingerprint(task)

	if useCache {
		if cached, ok := e.cache.Get(fingerprint); ok {
			e.emitter.Emit(Event{Type: EventCacheHit, RunID: runID, TaskID: task.ID, WorkerName: w.Name()})
			debugLog("[engine] cache hit for task %s", task.ID)
			return cached
		}
		e.emitter.Emit(Event{Type: EventCacheMiss, RunID: runID, TaskID: task.ID})
	}

	trace := e.traces.Start(w.Name(), task.ID)
	e.emitter.Emit(Event{Type: EventTaskStarted, RunID: runID, TaskID: task.ID, WorkerName: w.Name()})

	defer func() {
		if r := recover(); r != nil {
			res = models.NewFailedResult(task.ID, models.ErrorKindExecution, fmt.Sprintf("worker panic: %v", r))
		}
		e.traces.End(trace, res.Status, res.TokensUsed, res.Cost, res.Error)
		if res.Status == models.TaskStatusFailed {
			e.emitter.Emit(Event{
				Type:       EventTaskFailed,
				RunID:      runID,
				TaskID:     task.ID,
				WorkerName: w.Name(),
				Message:    res.Error,
			})
		} else {
			e.emitter.Emit(Event{Type: EventTaskCompleted, RunID: runID, TaskID: task.ID, WorkerName: w.Name()})
			if useCache && res.Succeeded() {
				e.cache.Set(fingerprint, res)
			}
		}
	}()

	result, err := w.Execute(ctx, task)
	if err != nil {
		return models.NewFailedResult(task.ID, models.ErrorKindExecution, err.Error())
	}
	if result == nil {
		return models.NewFailedResult(task.ID, models.ErrorKindExecution, "worker returned no result")
	}
	return result
}
