package models

import (
	"testing"
	"time"
)

func TestNewResult(t *testing.T) {
	r := NewResult("t1", map[string]any{"answer": 42})

	if r.Status != TaskStatusComplete {
		t.Errorf("Status = %s, want complete", r.Status)
	}
	if r.Confidence != 1.0 {
		t.Errorf("Confidence = %f, want 1.0", r.Confidence)
	}
	if r.Error != "" || r.ErrorKind != "" {
		t.Error("successful result should carry no error fields")
	}
	if !r.Succeeded() {
		t.Error("Succeeded() should be true for a complete result")
	}
}

func TestNewFailedResult(t *testing.T) {
	r := NewFailedResult("t1", ErrorKindMissingDependency, "prerequisite x unavailable")

	if r.Status != TaskStatusFailed {
		t.Errorf("Status = %s, want failed", r.Status)
	}
	if r.ErrorKind != ErrorKindMissingDependency {
		t.Errorf("ErrorKind = %q, want MissingDependencyData", r.ErrorKind)
	}
	if r.Result != nil {
		t.Error("failed result should carry no payload")
	}
	if r.Succeeded() {
		t.Error("Succeeded() should be false for a failed result")
	}
}

func TestExecutionTrace_Duration(t *testing.T) {
	start := time.Now()
	trace := &ExecutionTrace{StartTime: start}

	if trace.Duration() != 0 {
		t.Error("unfinished trace should report zero duration")
	}

	trace.EndTime = start.Add(1500 * time.Millisecond)
	if trace.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %s, want 1.5s", trace.Duration())
	}
}
