package decompose

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ShayCichocki/maestro/pkg/models"
)

const samplePlanYAML = `
strategy: parallel
tasks:
  - name: gather
    type: research
    objective: collect source material
    priority: high
    data:
      topic: market sizing
  - name: study
    type: analysis
    objective: analyze the gathered material
    depends_on: [gather]
  - name: report
    type: synthesis
    objective: write the final report
    depends_on: [study]
`

func TestParsePlanYAML(t *testing.T) {
	plan, err := ParsePlanYAML([]byte(samplePlanYAML))
	if err != nil {
		t.Fatalf("ParsePlanYAML failed: %v", err)
	}

	if plan.Strategy != models.StrategyParallel {
		t.Errorf("Strategy = %s, want parallel", plan.Strategy)
	}
	if len(plan.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(plan.Tasks))
	}

	gather, study, report := plan.Tasks[0], plan.Tasks[1], plan.Tasks[2]

	if gather.Type != "research" || gather.Priority != models.PriorityHigh {
		t.Errorf("gather task wrong: type=%s priority=%s", gather.Type, gather.Priority)
	}
	if gather.Data["topic"] != "market sizing" {
		t.Errorf("expected data payload carried through, got %v", gather.Data)
	}
	if study.Priority != models.PriorityMedium {
		t.Errorf("expected default medium priority, got %s", study.Priority)
	}

	if got := plan.Dependencies[study.ID]; len(got) != 1 || got[0] != gather.ID {
		t.Errorf("study dependencies = %v, want [%s]", got, gather.ID)
	}
	if got := plan.Dependencies[report.ID]; len(got) != 1 || got[0] != study.ID {
		t.Errorf("report dependencies = %v, want [%s]", got, study.ID)
	}
	if got := report.Dependencies(); len(got) != 1 || got[0] != study.ID {
		t.Errorf("expected constraints synced with dependency map, got %v", got)
	}

	for _, task := range plan.Tasks {
		if task.Constraints.ExecutionStrategy != models.StrategyParallel {
			t.Errorf("task %s strategy = %s, want parallel", task.ID, task.Constraints.ExecutionStrategy)
		}
	}
}

func TestParsePlanYAML_DefaultStrategy(t *testing.T) {
	plan, err := ParsePlanYAML([]byte("tasks:\n  - name: only\n    type: analysis\n    objective: o\n"))
	if err != nil {
		t.Fatalf("ParsePlanYAML failed: %v", err)
	}
	if plan.Strategy != models.StrategyParallel {
		t.Errorf("expected parallel default, got %s", plan.Strategy)
	}
}

func TestParsePlanYAML_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no tasks", "strategy: parallel\n"},
		{"bad strategy", "strategy: quantum\ntasks:\n  - name: a\n    objective: o\n"},
		{"unknown dependency", "tasks:\n  - name: a\n    objective: o\n    depends_on: [ghost]\n"},
		{"duplicate name", "tasks:\n  - name: a\n    objective: o\n  - name: a\n    objective: o\n"},
		{"missing name", "tasks:\n  - objective: o\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePlanYAML([]byte(tc.yaml)); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestFilePlanner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(samplePlanYAML), 0600); err != nil {
		t.Fatalf("write plan file: %v", err)
	}

	plan, err := NewFilePlanner(path).Plan(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(plan.Tasks))
	}
}

func TestFilePlanner_MissingFile(t *testing.T) {
	_, err := NewFilePlanner(filepath.Join(t.TempDir(), "nope.yaml")).Plan(context.Background(), "")
	if err == nil {
		t.Error("expected error for missing plan file")
	}
}
