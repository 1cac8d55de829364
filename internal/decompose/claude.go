package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Completer produces one text completion for a prompt. ClaudeWorker
// satisfies this.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// plannedTask is the JSON structure the model returns for a single task.
type plannedTask struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Objective string         `json:"objective"`
	Priority  string         `json:"priority"`
	Data      map[string]any `json:"data"`
	DependsOn []string       `json:"depends_on"`
}

// ClaudePlanner asks a model to break an objective into tasks with
// declared prerequisites.
type ClaudePlanner struct {
	completer Completer
	strategy  models.ExecutionStrategy
}

// NewClaudePlanner creates a planner over the given completer. strategy is
// the strategy stamped onto produced plans; empty means parallel.
func NewClaudePlanner(completer Completer, strategy models.ExecutionStrategy) *ClaudePlanner {
	if strategy == "" {
		strategy = models.StrategyParallel
	}
	return &ClaudePlanner{completer: completer, strategy: strategy}
}

// Plan implements Planner.
func (p *ClaudePlanner) Plan(ctx context.Context, objective string) (*Plan, error) {
	prompt := fmt.Sprintf(planningPrompt, objective)

	reply, err := p.completer.Complete(ctx, planningSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning completion: %w", err)
	}

	plan, err := ParsePlanResponse(reply)
	if err != nil {
		return nil, fmt.Errorf("parse planning response: %w", err)
	}
	plan.Strategy = p.strategy
	for _, task := range plan.Tasks {
		task.Constraints.ExecutionStrategy = p.strategy
	}
	return plan, nil
}

// ParsePlanResponse parses the model's JSON task array into a Plan. The
// array is located inside the reply so surrounding prose or markdown fences
// do not break parsing.
func ParsePlanResponse(response string) (*Plan, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		preview := response
		if len(preview) > 500 {
			preview = preview[:500] + "... (truncated)"
		}
		return nil, fmt.Errorf("no JSON array found in response (got %d chars): %q", len(response), preview)
	}

	var planned []plannedTask
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &planned); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(planned) == 0 {
		return nil, fmt.Errorf("empty task list returned")
	}

	nameToID := make(map[string]string, len(planned))
	tasks := make([]*models.Task, len(planned))
	now := time.Now().UTC()

	for i, pt := range planned {
		if pt.Name == "" {
			return nil, fmt.Errorf("task %d has no name", i)
		}
		id := uuid.New().String()
		nameToID[pt.Name] = id

		priority := models.TaskPriority(strings.ToLower(pt.Priority))
		if pt.Priority == "" {
			priority = models.PriorityMedium
		}

		tasks[i] = &models.Task{
			ID:        id,
			Type:      strings.ToLower(pt.Type),
			Objective: pt.Objective,
			Data:      pt.Data,
			Priority:  priority,
			CreatedAt: now,
		}
	}

	deps := make(map[string][]string, len(planned))
	for i, pt := range planned {
		for _, depName := range pt.DependsOn {
			depID, ok := nameToID[depName]
			if !ok {
				return nil, fmt.Errorf("unknown dependency %q for task %q", depName, pt.Name)
			}
			deps[tasks[i].ID] = append(deps[tasks[i].ID], depID)
		}
		tasks[i].Constraints.Dependencies = deps[tasks[i].ID]
	}

	return &Plan{Tasks: tasks, Dependencies: deps}, nil
}

const planningSystemPrompt = `You are a task planner. Respond ONLY with a JSON array of task objects:
[{"name": "<short-label>", "type": "<research|analysis|synthesis|validation|generation>", "objective": "<what to do>", "priority": "<low|medium|high|critical>", "depends_on": ["<name>", ...]}]
Dependencies reference task names within the same array. No prose outside the JSON array.`

const planningPrompt = `Break the following objective into the smallest set of tasks that can be
executed independently wherever possible. Declare a dependency only when a
task genuinely needs another task's output.

Objective: %s`
