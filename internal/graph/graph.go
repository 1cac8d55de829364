// Package graph provides dependency graph validation and topological
// leveling for task scheduling.
package graph

import "fmt"

// WarningKind classifies a repair made during graph validation.
type WarningKind string

const (
	// WarnMissingEntry means a task had no declared dependency entry and
	// was added with an empty prerequisite list.
	WarnMissingEntry WarningKind = "missing_entry"
	// WarnUnknownDependency means a prerequisite referenced a task outside
	// the task set and was dropped.
	WarnUnknownDependency WarningKind = "unknown_dependency"
	// WarnSelfDependency means a task declared itself as a prerequisite
	// and the edge was dropped.
	WarnSelfDependency WarningKind = "self_dependency"
)

// Warning describes a single repair made while validating a declared
// dependency mapping. Warnings are reported, never fatal.
type Warning struct {
	Kind   WarningKind
	TaskID string
	DepID  string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingEntry:
		return fmt.Sprintf("task %s missing from declared dependencies, added with no prerequisites", w.TaskID)
	case WarnUnknownDependency:
		return fmt.Sprintf("task %s depends on unknown task %s, dropped", w.TaskID, w.DepID)
	case WarnSelfDependency:
		return fmt.Sprintf("task %s depends on itself, dropped", w.TaskID)
	default:
		return fmt.Sprintf("unknown warning for task %s", w.TaskID)
	}
}

// DependencyGraph is a validated mapping from task ID to the ordered IDs of
// its prerequisites. Node order follows the order IDs were supplied to
// Validate, which makes downstream leveling deterministic.
type DependencyGraph struct {
	// ids holds task IDs in insertion order.
	ids []string
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
}

// Validate repairs a declared dependency mapping against a task ID set and
// returns the resulting graph plus warnings for every repair made.
//
// Repairs applied:
//   - IDs absent from declared get an empty prerequisite list.
//   - Prerequisites referencing IDs outside the set are dropped.
//   - Self-dependencies are dropped.
//
// Cycles are not repaired here; callers decide policy via HasCycle.
func Validate(ids []string, declared map[string][]string) (*DependencyGraph, []Warning) {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	g := &DependencyGraph{
		ids:   make([]string, 0, len(ids)),
		edges: make(map[string][]string, len(ids)),
	}
	var warnings []Warning

	for _, id := range ids {
		if _, ok := g.edges[id]; ok {
			continue // duplicate ID in input, first occurrence wins
		}
		g.ids = append(g.ids, id)

		deps, ok := declared[id]
		if !ok {
			warnings = append(warnings, Warning{Kind: WarnMissingEntry, TaskID: id})
			g.edges[id] = nil
			continue
		}

		kept := make([]string, 0, len(deps))
		for _, dep := range deps {
			switch {
			case dep == id:
				warnings = append(warnings, Warning{Kind: WarnSelfDependency, TaskID: id})
			case !known[dep]:
				warnings = append(warnings, Warning{Kind: WarnUnknownDependency, TaskID: id, DepID: dep})
			default:
				kept = append(kept, dep)
			}
		}
		g.edges[id] = kept
	}

	return g, warnings
}

// IDs returns the task IDs in insertion order.
func (g *DependencyGraph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Dependencies returns the prerequisite IDs for the given task.
func (g *DependencyGraph) Dependencies(id string) []string {
	return g.edges[id]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.ids)
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *DependencyGraph) Dependents(id string) []string {
	var dependents []string
	for _, candidate := range g.ids {
		for _, dep := range g.edges[candidate] {
			if dep == id {
				dependents = append(dependents, candidate)
				break
			}
		}
	}
	return dependents
}

// dfs color states for cycle detection.
const (
	colorWhite = iota // unvisited
	colorGray         // on the current traversal stack
	colorBlack        // fully processed
)

// HasCycle returns true if the graph contains a circular dependency.
//
// Uses an iterative depth-first traversal with an explicit stack; a back
// edge to a gray node is a cycle. The validator only reports the condition,
// strategy fallback is the caller's policy.
func (g *DependencyGraph) HasCycle() bool {
	colors := make(map[string]int, len(g.ids))

	type frame struct {
		id   string
		next int // index of the next edge to explore
	}

	for _, start := range g.ids {
		if colors[start] != colorWhite {
			continue
		}

		stack := []frame{{id: start}}
		colors[start] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.edges[top.id]

			if top.next >= len(deps) {
				colors[top.id] = colorBlack
				stack = stack[:len(stack)-1]
				continue
			}

			dep := deps[top.next]
			top.next++

			switch colors[dep] {
			case colorGray:
				return true
			case colorWhite:
				colors[dep] = colorGray
				stack = append(stack, frame{id: dep})
			}
		}
	}

	return false
}
