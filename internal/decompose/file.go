package decompose

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// planFile is the YAML shape of a static plan.
type planFile struct {
	Strategy string         `yaml:"strategy"`
	Tasks    []planFileTask `yaml:"tasks"`
}

type planFileTask struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	Objective string         `yaml:"objective"`
	Priority  string         `yaml:"priority"`
	Data      map[string]any `yaml:"data"`
	DependsOn []string       `yaml:"depends_on"`
}

// FilePlanner loads a plan from a YAML file. The objective passed to Plan
// is informational only; the file fully describes the task set.
type FilePlanner struct {
	path string
}

// NewFilePlanner creates a planner reading the given plan file.
func NewFilePlanner(path string) *FilePlanner {
	return &FilePlanner{path: path}
}

// Plan implements Planner.
func (p *FilePlanner) Plan(_ context.Context, _ string) (*Plan, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return ParsePlanYAML(data)
}

// ParsePlanYAML parses a YAML plan document into a Plan. Task names in the
// file are local labels; each task gets a fresh ID and depends_on entries
// are resolved from names to IDs.
func ParsePlanYAML(data []byte) (*Plan, error) {
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unmarshal plan YAML: %w", err)
	}

	if len(pf.Tasks) == 0 {
		return nil, fmt.Errorf("plan contains no tasks")
	}

	strategy := models.ExecutionStrategy(pf.Strategy)
	if pf.Strategy == "" {
		strategy = models.StrategyParallel
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown strategy %q", pf.Strategy)
	}

	nameToID := make(map[string]string, len(pf.Tasks))
	tasks := make([]*models.Task, len(pf.Tasks))
	now := time.Now().UTC()

	for i, ft := range pf.Tasks {
		if ft.Name == "" {
			return nil, fmt.Errorf("task %d has no name", i)
		}
		if _, dup := nameToID[ft.Name]; dup {
			return nil, fmt.Errorf("duplicate task name %q", ft.Name)
		}

		id := uuid.New().String()
		nameToID[ft.Name] = id

		priority := models.TaskPriority(strings.ToLower(ft.Priority))
		if ft.Priority == "" {
			priority = models.PriorityMedium
		}

		tasks[i] = &models.Task{
			ID:        id,
			Type:      ft.Type,
			Objective: ft.Objective,
			Data:      ft.Data,
			Priority:  priority,
			CreatedAt: now,
		}
		tasks[i].Constraints.ExecutionStrategy = strategy
	}

	deps := make(map[string][]string, len(pf.Tasks))
	for i, ft := range pf.Tasks {
		for _, depName := range ft.DependsOn {
			depID, ok := nameToID[depName]
			if !ok {
				return nil, fmt.Errorf("unknown dependency %q for task %q", depName, ft.Name)
			}
			deps[tasks[i].ID] = append(deps[tasks[i].ID], depID)
		}
		tasks[i].Constraints.Dependencies = deps[tasks[i].ID]
	}

	return &Plan{Strategy: strategy, Tasks: tasks, Dependencies: deps}, nil
}
