package worker

import (
	"context"
	"testing"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// stubWorker is a minimal Worker for routing tests.
type stubWorker struct {
	name       string
	capability models.Capability
}

func (s *stubWorker) Name() string                  { return s.name }
func (s *stubWorker) Capability() models.Capability { return s.capability }
func (s *stubWorker) Execute(_ context.Context, task *models.Task) (*models.TaskResult, error) {
	return models.NewResult(task.ID, map[string]any{"by": s.name}), nil
}

func TestRegistryPickByCapability(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubWorker{name: "w-research", capability: models.CapabilityResearch})
	r.Register(&stubWorker{name: "w-analysis", capability: models.CapabilityAnalysis})

	task := &models.Task{ID: "t1", Type: "analysis"}
	w, fallback := r.PickFor(task)

	if fallback {
		t.Error("expected exact capability match, not fallback")
	}
	if w.Name() != "w-analysis" {
		t.Errorf("expected w-analysis selected, got %s", w.Name())
	}
}

func TestRegistryFallbackToFirstRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubWorker{name: "first", capability: models.CapabilityResearch})
	r.Register(&stubWorker{name: "second", capability: models.CapabilityAnalysis})

	task := &models.Task{ID: "t1", Type: "translation"}
	w, fallback := r.PickFor(task)

	if !fallback {
		t.Error("expected fallback flag for unmatched capability")
	}
	if w.Name() != "first" {
		t.Errorf("expected first-registered worker as fallback, got %s", w.Name())
	}
}

func TestRegistryEmptyPick(t *testing.T) {
	r := NewRegistry()

	w, _ := r.PickFor(&models.Task{ID: "t1", Type: "analysis"})
	if w != nil {
		t.Error("expected nil worker from empty registry")
	}
}

func TestRegistryDuplicateNameIgnored(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubWorker{name: "dup", capability: models.CapabilityResearch})
	r.Register(&stubWorker{name: "dup", capability: models.CapabilityAnalysis})

	if r.Count() != 1 {
		t.Errorf("expected duplicate registration ignored, count %d", r.Count())
	}
	if r.Get("dup").Capability() != models.CapabilityResearch {
		t.Error("expected first registration retained")
	}
}

func TestRegistryAllPreservesOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"a", "b", "c"}
	for _, n := range names {
		r.Register(&stubWorker{name: n, capability: models.CapabilityResearch})
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 workers, got %d", len(all))
	}
	for i, n := range names {
		if all[i].Name() != n {
			t.Errorf("expected worker %d to be %s, got %s", i, n, all[i].Name())
		}
	}
}

func TestParseStructuredResponse(t *testing.T) {
	payload, confidence, err := parseStructuredResponse("```json\n{\"result\": {\"k\": \"v\"}, \"confidence\": 0.8}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["k"] != "v" {
		t.Errorf("expected payload k=v, got %v", payload)
	}
	if confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %f", confidence)
	}
}

func TestParseStructuredResponseDefaults(t *testing.T) {
	_, confidence, err := parseStructuredResponse(`{"result": {}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confidence != 1.0 {
		t.Errorf("expected default confidence 1.0, got %f", confidence)
	}
}

func TestParseStructuredResponseRejectsBadConfidence(t *testing.T) {
	if _, _, err := parseStructuredResponse(`{"result": {}, "confidence": 1.5}`); err == nil {
		t.Error("expected out-of-range confidence to be rejected")
	}
}

func TestParseStructuredResponseRejectsProse(t *testing.T) {
	if _, _, err := parseStructuredResponse("Sure! Here's the answer."); err == nil {
		t.Error("expected non-JSON reply to be rejected")
	}
}
