package graph

// Level is an ordered batch of task IDs whose prerequisites are all
// satisfied by strictly earlier levels.
type Level []string

// Levelize partitions the graph into ordered levels using Kahn topological
// layering. Every task appears in exactly one level, and a task's level
// index is strictly greater than that of each of its prerequisites.
//
// Output is deterministic for a given graph: within a level, tasks appear
// in the order their IDs were supplied to Validate.
//
// If no task has zero remaining in-degree but unassigned tasks remain (a
// cycle survived validation), the remaining IDs are returned as the
// unresolved residual. Callers decide whether to run the residual as a
// best-effort final level or abort; Levelize itself never fails.
func Levelize(g *DependencyGraph) (levels []Level, unresolved []string) {
	indegree := make(map[string]int, g.Size())
	for _, id := range g.ids {
		indegree[id] = len(g.edges[id])
	}

	assigned := make(map[string]bool, g.Size())

	for len(assigned) < g.Size() {
		var level Level
		for _, id := range g.ids {
			if !assigned[id] && indegree[id] == 0 {
				level = append(level, id)
			}
		}

		if len(level) == 0 {
			for _, id := range g.ids {
				if !assigned[id] {
					unresolved = append(unresolved, id)
				}
			}
			return levels, unresolved
		}

		for _, id := range level {
			assigned[id] = true
		}
		// Satisfying a prerequisite lowers the in-degree of its dependents.
		for _, id := range g.ids {
			if assigned[id] {
				continue
			}
			for _, dep := range g.edges[id] {
				if levelContains(level, dep) {
					indegree[id]--
				}
			}
		}

		levels = append(levels, level)
	}

	return levels, nil
}

func levelContains(level Level, id string) bool {
	for _, member := range level {
		if member == id {
			return true
		}
	}
	return false
}
