package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ShayCichocki/maestro/internal/worker"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// fakeWorker is a scriptable Worker for engine tests.
type fakeWorker struct {
	name       string
	capability models.Capability
	execute    func(ctx context.Context, task *models.Task) (*models.TaskResult, error)
	calls      atomic.Int64
}

func (f *fakeWorker) Name() string                  { return f.name }
func (f *fakeWorker) Capability() models.Capability { return f.capability }
func (f *fakeWorker) Execute(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	f.calls.Add(1)
	if f.execute != nil {
		return f.execute(ctx, task)
	}
	return models.NewResult(task.ID, map[string]any{"by": f.name}), nil
}

func newTestEngine(workers ...worker.Worker) (*Engine, *worker.Registry) {
	r := worker.NewRegistry()
	for _, w := range workers {
		r.Register(w)
	}
	return New(r), r
}

func seqTask(id string, deps ...string) *models.Task {
	return &models.Task{
		ID:          id,
		Type:        "analysis",
		Objective:   "objective " + id,
		Constraints: models.Constraints{Dependencies: deps},
	}
}

func declaredOf(tasks []*models.Task) map[string][]string {
	declared := make(map[string][]string, len(tasks))
	for _, task := range tasks {
		declared[task.ID] = task.Constraints.Dependencies
	}
	return declared
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	e, _ := newTestEngine(&fakeWorker{name: "w", capability: models.CapabilityAnalysis})

	_, err := e.Run(context.Background(), models.ExecutionStrategy("quantum"), makeTasks("a"), nil)
	if !errors.Is(err, ErrUnsupportedStrategy) {
		t.Fatalf("expected ErrUnsupportedStrategy, got %v", err)
	}
}

func TestRunRejectsEmptyRegistry(t *testing.T) {
	e, _ := newTestEngine()

	_, err := e.Run(context.Background(), models.StrategyParallel, makeTasks("a"), nil)
	if !errors.Is(err, ErrNoWorkers) {
		t.Fatalf("expected ErrNoWorkers, got %v", err)
	}
}

func TestRunEmptyTaskSet(t *testing.T) {
	e, _ := newTestEngine(&fakeWorker{name: "w", capability: models.CapabilityAnalysis})

	results, err := e.Run(context.Background(), models.StrategyParallel, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSequentialExecutesInOrder(t *testing.T) {
	var order []string
	w := &fakeWorker{
		name:       "w",
		capability: models.CapabilityAnalysis,
		execute: func(_ context.Context, task *models.Task) (*models.TaskResult, error) {
			order = append(order, task.ID)
			return models.NewResult(task.ID, nil), nil
		},
	}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a"), seqTask("b", "a"), seqTask("c", "b")}
	results, err := e.Run(context.Background(), models.StrategySequential, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if order[i] != want {
			t.Errorf("execution order %d: expected %s, got %s", i, want, order[i])
		}
	}
}

func TestSequentialFailFastHalt(t *testing.T) {
	w := &fakeWorker{
		name:       "w",
		capability: models.CapabilityAnalysis,
		execute: func(_ context.Context, task *models.Task) (*models.TaskResult, error) {
			if task.ID == "b" {
				return nil, errors.New("worker exploded")
			}
			return models.NewResult(task.ID, nil), nil
		},
	}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a"), seqTask("b"), seqTask("c")}
	results, err := e.Run(context.Background(), models.StrategySequential, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected halt after failure with 2 results, got %d", len(results))
	}
	if results[1].Status != models.TaskStatusFailed {
		t.Errorf("expected second result failed, got %s", results[1].Status)
	}
	if results[1].ErrorKind != models.ErrorKindExecution {
		t.Errorf("expected ExecutionError kind, got %s", results[1].ErrorKind)
	}
	if w.calls.Load() != 2 {
		t.Errorf("expected c never executed, worker called %d times", w.calls.Load())
	}
}

func TestSequentialHaltsOnUnmetPrerequisite(t *testing.T) {
	e, _ := newTestEngine(&fakeWorker{name: "w", capability: models.CapabilityAnalysis})

	// b declares a prerequisite that appears later in input order, so it is
	// not yet completed when b comes up.
	tasks := []*models.Task{seqTask("b", "c"), seqTask("c")}
	results, err := e.Run(context.Background(), models.StrategySequential, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected immediate halt with no results, got %d", len(results))
	}
}

func TestSequentialCycleFallsBackToParallel(t *testing.T) {
	w := &fakeWorker{name: "w", capability: models.CapabilityAnalysis}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a", "b"), seqTask("b", "a")}
	results, err := e.Run(context.Background(), models.StrategySequential, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fallback treats the set as independent: both tasks execute.
	if len(results) != 2 {
		t.Fatalf("expected both tasks executed after fallback, got %d results", len(results))
	}
	for _, r := range results {
		if r.Status != models.TaskStatusComplete {
			t.Errorf("expected task %s complete after fallback, got %s", r.TaskID, r.Status)
		}
	}
	for _, task := range tasks {
		if len(task.Dependencies()) != 0 {
			t.Errorf("expected task %s dependencies cleared by fallback, got %v", task.ID, task.Dependencies())
		}
	}
}

func TestParallelLevelsAndFailurePropagation(t *testing.T) {
	w := &fakeWorker{
		name:       "w",
		capability: models.CapabilityAnalysis,
		execute: func(_ context.Context, task *models.Task) (*models.TaskResult, error) {
			if task.ID == "x" {
				return nil, errors.New("x blew up")
			}
			return models.NewResult(task.ID, nil), nil
		},
	}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("x"), seqTask("y", "x"), seqTask("z", "x")}
	results, err := e.Run(context.Background(), models.StrategyParallel, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byID := make(map[string]*models.TaskResult)
	for _, r := range results {
		byID[r.TaskID] = r
	}

	if byID["x"].ErrorKind != models.ErrorKindExecution {
		t.Errorf("expected x to fail with ExecutionError, got %s", byID["x"].ErrorKind)
	}
	for _, id := range []string{"y", "z"} {
		r := byID[id]
		if r.Status != models.TaskStatusFailed {
			t.Errorf("expected %s failed, got %s", id, r.Status)
		}
		if r.ErrorKind != models.ErrorKindMissingDependency {
			t.Errorf("expected %s error kind MissingDependencyData, got %s", id, r.ErrorKind)
		}
	}

	// x executed once; y and z were never dispatched.
	if w.calls.Load() != 1 {
		t.Errorf("expected exactly 1 worker call, got %d", w.calls.Load())
	}
}

func TestParallelCarriesResultsForward(t *testing.T) {
	var sawDeps map[string]any
	w := &fakeWorker{
		name:       "w",
		capability: models.CapabilityAnalysis,
		execute: func(_ context.Context, task *models.Task) (*models.TaskResult, error) {
			if task.ID == "y" {
				if deps, ok := task.Data[models.DependencyResultsKey].(map[string]any); ok {
					sawDeps = deps
				}
			}
			return models.NewResult(task.ID, map[string]any{"from": task.ID}), nil
		},
	}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("x"), seqTask("y", "x")}
	if _, err := e.Run(context.Background(), models.StrategyParallel, tasks, declaredOf(tasks)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sawDeps == nil {
		t.Fatal("expected y to receive dependency results from x")
	}
	payload, ok := sawDeps["x"].(map[string]any)
	if !ok || payload["from"] != "x" {
		t.Errorf("expected x's result payload carried forward, got %v", sawDeps["x"])
	}
}

func TestCacheHitSkipsWorker(t *testing.T) {
	w := &fakeWorker{name: "w", capability: models.CapabilityAnalysis}
	e, _ := newTestEngine(w)

	// Same content twice: second run must be served from cache.
	first := []*models.Task{{ID: "t1", Type: "analysis", Objective: "same objective"}}
	second := []*models.Task{{ID: "t2", Type: "analysis", Objective: "same objective"}}

	if _, err := e.Run(context.Background(), models.StrategyParallel, first, declaredOf(first)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Run(context.Background(), models.StrategyParallel, second, declaredOf(second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.calls.Load() != 1 {
		t.Errorf("expected single worker call across identical requests, got %d", w.calls.Load())
	}
}

func TestWorkerPanicBecomesFailedResult(t *testing.T) {
	w := &fakeWorker{
		name:       "w",
		capability: models.CapabilityAnalysis,
		execute: func(_ context.Context, task *models.Task) (*models.TaskResult, error) {
			panic("worker lost its mind")
		},
	}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a")}
	results, err := e.Run(context.Background(), models.StrategyParallel, tasks, declaredOf(tasks))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != models.TaskStatusFailed || results[0].ErrorKind != models.ErrorKindExecution {
		t.Errorf("expected panic converted to failed ExecutionError result, got %+v", results[0])
	}
}

func TestRoutingFallbackEvent(t *testing.T) {
	w := &fakeWorker{name: "first", capability: models.CapabilityResearch}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{{ID: "t1", Type: "no-such-capability", Objective: "o"}}
	if _, err := e.Run(context.Background(), models.StrategyParallel, tasks, declaredOf(tasks)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Close()

	found := false
	for ev := range e.Events() {
		if ev.Type == EventRoutingFallback && ev.WorkerName == "first" {
			found = true
		}
	}
	if !found {
		t.Error("expected routing_fallback event for unmatched capability")
	}
}

func TestTraceLogRecordsRuns(t *testing.T) {
	w := &fakeWorker{name: "w", capability: models.CapabilityAnalysis}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a"), seqTask("b")}
	if _, err := e.Run(context.Background(), models.StrategyParallel, tasks, declaredOf(tasks)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	traces := e.Traces().All()
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}
	for _, tr := range traces {
		if tr.WorkerName != "w" {
			t.Errorf("expected worker name recorded, got %q", tr.WorkerName)
		}
		if tr.Status != models.TaskStatusComplete {
			t.Errorf("expected complete trace, got %s", tr.Status)
		}
		if tr.EndTime.IsZero() {
			t.Error("expected trace end time set")
		}
	}
}

func TestValidationWarningsRepairGraph(t *testing.T) {
	w := &fakeWorker{name: "w", capability: models.CapabilityAnalysis}
	e, _ := newTestEngine(w)

	tasks := []*models.Task{seqTask("a"), seqTask("b")}
	declared := map[string][]string{
		"a": {"ghost", "a"}, // unknown + self dependency, both dropped
		// b intentionally missing
	}

	results, err := e.Run(context.Background(), models.StrategyParallel, tasks, declared)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != models.TaskStatusComplete {
			t.Errorf("expected %s complete after graph repair, got %s", r.TaskID, r.Status)
		}
	}
}
