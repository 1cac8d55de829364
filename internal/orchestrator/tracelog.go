package orchestrator

import (
	"sync"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// TraceSink receives finished execution traces. Implementations live
// outside the engine (e.g. the sqlite trace store); a sink failure is
// logged and never fails the run.
type TraceSink interface {
	Record(trace *models.ExecutionTrace) error
}

// TraceLog is the process-lifetime, append-only record of worker task-runs.
// Traces are never mutated after the run they describe ends.
type TraceLog struct {
	mu     sync.Mutex
	traces []*models.ExecutionTrace
	sink   TraceSink
}

// NewTraceLog creates an empty trace log. sink may be nil.
func NewTraceLog(sink TraceSink) *TraceLog {
	return &TraceLog{sink: sink}
}

// Start opens a trace for a worker task-run and appends it to the log.
func (l *TraceLog) Start(workerName, taskID string) *models.ExecutionTrace {
	trace := &models.ExecutionTrace{
		WorkerName: workerName,
		TaskID:     taskID,
		StartTime:  time.Now().UTC(),
		Status:     models.TaskStatusRunning,
	}

	l.mu.Lock()
	l.traces = append(l.traces, trace)
	l.mu.Unlock()

	return trace
}

// End closes a trace and forwards it to the sink, if one is configured.
func (l *TraceLog) End(trace *models.ExecutionTrace, status models.TaskStatus, tokens int64, cost float64, errMsg string) {
	l.mu.Lock()
	trace.EndTime = time.Now().UTC()
	trace.Status = status
	trace.TokensUsed = tokens
	trace.Cost = cost
	trace.Error = errMsg
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.Record(trace); err != nil {
			debugLog("[tracelog] sink record failed for task %s: %v", trace.TaskID, err)
		}
	}
}

// All returns a snapshot of the trace log in append order. Entries are
// copies, so callers can read them while runs are still finishing.
func (l *TraceLog) All() []*models.ExecutionTrace {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.ExecutionTrace, len(l.traces))
	for i, trace := range l.traces {
		snapshot := *trace
		out[i] = &snapshot
	}
	return out
}

// Len returns the number of recorded traces.
func (l *TraceLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.traces)
}
