package models

import "time"

// Error kinds recorded on failed TaskResults. These mirror the engine's
// error taxonomy so callers can branch on failure class without string
// matching on messages.
const (
	// ErrorKindExecution wraps any failure raised by a worker.
	ErrorKindExecution = "ExecutionError"
	// ErrorKindMissingDependency marks a task whose prerequisite results
	// were unavailable; the task was never dispatched.
	ErrorKindMissingDependency = "MissingDependencyData"
	// ErrorKindNoWorkersSucceeded marks a consensus run where every
	// participating worker failed.
	ErrorKindNoWorkersSucceeded = "NoWorkersSucceeded"
)

// TaskResult is the outcome of executing a single task.
//
// Exactly one result exists per task per run. Result and Error are mutually
// exclusive: a result payload is present iff the status is complete or
// partial, and the error fields are set iff the status is failed.
// A TaskResult is immutable once produced.
type TaskResult struct {
	// TaskID identifies the task this result belongs to.
	TaskID string `json:"task_id"`
	// Status is the terminal status of the task.
	Status TaskStatus `json:"status"`
	// Result is the payload produced by the worker, if any.
	Result map[string]any `json:"result,omitempty"`
	// Error is the failure description, if the task failed.
	Error string `json:"error,omitempty"`
	// ErrorKind classifies the failure (ExecutionError, MissingDependencyData, ...).
	ErrorKind string `json:"error_kind,omitempty"`
	// Confidence is the worker's confidence in the result, in [0,1].
	Confidence float64 `json:"confidence"`
	// ProcessingTime is how long the worker took to produce the result.
	ProcessingTime time.Duration `json:"processing_time_ms"`
	// TokensUsed is the number of model tokens consumed.
	TokensUsed int64 `json:"tokens_used,omitempty"`
	// Cost is the estimated cost in USD.
	Cost float64 `json:"cost,omitempty"`
	// Metadata carries worker- and strategy-specific annotations.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CompletedAt is when the result was produced.
	CompletedAt time.Time `json:"completed_at"`
}

// NewResult creates a complete TaskResult with full confidence.
func NewResult(taskID string, payload map[string]any) *TaskResult {
	return &TaskResult{
		TaskID:      taskID,
		Status:      TaskStatusComplete,
		Result:      payload,
		Confidence:  1.0,
		CompletedAt: time.Now().UTC(),
	}
}

// NewFailedResult creates a failed TaskResult with the given error kind.
func NewFailedResult(taskID, kind, msg string) *TaskResult {
	return &TaskResult{
		TaskID:      taskID,
		Status:      TaskStatusFailed,
		Error:       msg,
		ErrorKind:   kind,
		CompletedAt: time.Now().UTC(),
	}
}

// Succeeded returns true if the task reached complete status.
func (r *TaskResult) Succeeded() bool {
	return r.Status == TaskStatusComplete
}

// ExecutionTrace records one worker task-run for observability.
// Traces are appended to a process-lifetime log and never mutated after
// the run they describe ends.
type ExecutionTrace struct {
	// WorkerName is the name of the worker that ran the task.
	WorkerName string `json:"worker_name"`
	// TaskID identifies the task.
	TaskID string `json:"task_id"`
	// StartTime is when execution began.
	StartTime time.Time `json:"start_time"`
	// EndTime is when execution ended, if it has.
	EndTime time.Time `json:"end_time,omitempty"`
	// Status is the status the run ended with.
	Status TaskStatus `json:"status"`
	// TokensUsed is the number of model tokens consumed.
	TokensUsed int64 `json:"tokens_used"`
	// Cost is the estimated cost in USD.
	Cost float64 `json:"cost"`
	// Error is the failure message, if the run failed.
	Error string `json:"error,omitempty"`
}

// Duration returns the elapsed run time, or zero if the run has not ended.
func (t *ExecutionTrace) Duration() time.Duration {
	if t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}
