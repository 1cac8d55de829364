// Package models defines the shared domain types for maestro.
package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being worked on.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusComplete indicates the task completed successfully.
	TaskStatusComplete TaskStatus = "complete"
	// TaskStatusPartial indicates the task produced an incomplete result.
	TaskStatusPartial TaskStatus = "partial"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusComplete, TaskStatusPartial, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state for a run.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusComplete, TaskStatusPartial, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskPriority indicates how urgent a task is relative to its siblings.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// ExecutionStrategy describes how a set of tasks should be executed.
type ExecutionStrategy string

const (
	// StrategySequential executes tasks one at a time in input order.
	StrategySequential ExecutionStrategy = "sequential"
	// StrategyParallel executes tasks in dependency-level waves.
	StrategyParallel ExecutionStrategy = "parallel"
	// StrategyConsensus runs one task on every worker and picks a winner.
	StrategyConsensus ExecutionStrategy = "consensus"
)

// Valid returns true if the strategy is a known value.
func (s ExecutionStrategy) Valid() bool {
	switch s {
	case StrategySequential, StrategyParallel, StrategyConsensus:
		return true
	default:
		return false
	}
}

// Capability labels the kind of work a worker can perform.
// Tasks are routed to workers by matching Task.Type against this label.
type Capability string

const (
	CapabilityResearch   Capability = "research"
	CapabilityAnalysis   Capability = "analysis"
	CapabilitySynthesis  Capability = "synthesis"
	CapabilityValidation Capability = "validation"
	CapabilityGeneration Capability = "generation"
)

// Constraints carries scheduling hints attached to a task.
type Constraints struct {
	// Dependencies lists task IDs that must complete before this task.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies"`
	// ExecutionStrategy is the strategy requested for the run this task
	// belongs to. All tasks in a run share the same value.
	ExecutionStrategy ExecutionStrategy `json:"execution_strategy,omitempty" yaml:"execution_strategy"`
}

// DependencyResultsKey is the payload key under which a task's prerequisite
// results are injected before dispatch.
const DependencyResultsKey = "dependency_results"

// Task represents a unit of work in the system.
//
// A task is immutable once created, except that its Data payload may be
// enriched in place with prerequisite results before dispatch.
type Task struct {
	// ID is the unique identifier for this task, stable for the run.
	ID string `json:"id" yaml:"id"`
	// Type is the capability label used to route the task to a worker.
	Type string `json:"type" yaml:"type"`
	// Objective is the human-readable description of the work.
	Objective string `json:"objective" yaml:"objective"`
	// Data is the opaque payload handed to the worker.
	Data map[string]any `json:"data,omitempty" yaml:"data"`
	// Priority is the priority tag for this task.
	Priority TaskPriority `json:"priority,omitempty" yaml:"priority"`
	// Constraints carries dependencies and the requested strategy.
	Constraints Constraints `json:"constraints" yaml:"constraints"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewTask creates a task with a fresh ID and medium priority.
func NewTask(taskType, objective string) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		Objective: objective,
		Priority:  PriorityMedium,
		CreatedAt: time.Now().UTC(),
	}
}

// Dependencies returns the declared prerequisite IDs for this task.
func (t *Task) Dependencies() []string {
	return t.Constraints.Dependencies
}

// AttachDependencyResults enriches the task payload with the results of its
// prerequisites, keyed by prerequisite task ID.
func (t *Task) AttachDependencyResults(results map[string]any) {
	if len(results) == 0 {
		return
	}
	if t.Data == nil {
		t.Data = make(map[string]any)
	}
	t.Data[DependencyResultsKey] = results
}
