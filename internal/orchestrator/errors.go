package orchestrator

import "errors"

// ErrCycleDetected indicates a circular dependency was found in the task
// graph. Recoverable: a sequential run falls back to parallel execution
// with the task set treated as independent.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrNoWorkersSucceeded indicates a consensus run in which every
// participating worker failed. Run-level failure.
var ErrNoWorkersSucceeded = errors.New("no workers succeeded")

// ErrUnsupportedStrategy indicates the caller requested an execution
// strategy the engine does not know. This is invalid input, raised
// immediately before any task is dispatched.
var ErrUnsupportedStrategy = errors.New("unsupported execution strategy")

// ErrNoWorkers indicates a run was started with an empty worker registry.
var ErrNoWorkers = errors.New("no workers registered")
