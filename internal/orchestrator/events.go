// Package orchestrator implements the dependency-aware execution engine:
// strategy selection, level-batched dispatch through a bounded worker pool,
// consensus runs, and result memoization.
package orchestrator

import "time"

// EventType represents the type of engine event.
type EventType string

const (
	// EventRunStarted indicates a run has begun.
	EventRunStarted EventType = "run_started"
	// EventRunCompleted indicates a run has finished.
	EventRunCompleted EventType = "run_completed"
	// EventValidationWarning reports a repair made during graph validation.
	EventValidationWarning EventType = "validation_warning"
	// EventCycleDetected indicates the declared dependencies form a cycle.
	EventCycleDetected EventType = "cycle_detected"
	// EventStrategyFallback indicates a sequential run switched to parallel
	// after cycle detection, before any task executed.
	EventStrategyFallback EventType = "strategy_fallback"
	// EventLevelStarted indicates a dependency level began executing.
	EventLevelStarted EventType = "level_started"
	// EventLevelCompleted indicates a dependency level fully resolved.
	EventLevelCompleted EventType = "level_completed"
	// EventTaskStarted indicates a task was handed to a worker.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "task_failed"
	// EventCacheHit indicates a task was satisfied from the result cache.
	EventCacheHit EventType = "cache_hit"
	// EventCacheMiss indicates a task's fingerprint was not cached.
	EventCacheMiss EventType = "cache_miss"
	// EventDependencyMissing indicates a task was short-circuited because a
	// prerequisite result was unavailable.
	EventDependencyMissing EventType = "dependency_missing"
	// EventRoutingFallback indicates no worker matched the task's
	// capability and the first-registered worker was used instead.
	EventRoutingFallback EventType = "routing_fallback"
	// EventUnresolvedResidual indicates leveling left tasks unassigned
	// (a cycle survived validation) and they run as a best-effort level.
	EventUnresolvedResidual EventType = "unresolved_residual"
	// EventConsensusDecided indicates a consensus run picked a winner.
	EventConsensusDecided EventType = "consensus_decided"
	// EventSequentialHalt indicates a sequential run stopped early.
	EventSequentialHalt EventType = "sequential_halt"
)

// Event is a structured notification of a scheduling decision. Events flow
// one way, from the engine to subscribers; the engine never reads them back.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID identifies the run the event belongs to.
	RunID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// WorkerName is the name of the related worker, if applicable.
	WorkerName string
	// Level is the dependency level index, for level events.
	Level int
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
