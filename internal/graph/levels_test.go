package graph

import "testing"

func TestLevelizeSimpleFanOut(t *testing.T) {
	g, _ := Validate([]string{"x", "y", "z"}, map[string][]string{
		"x": nil,
		"y": {"x"},
		"z": {"x"},
	})

	levels, unresolved := Levelize(g)
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved tasks, got %v", unresolved)
	}

	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	if len(levels[0]) != 1 || levels[0][0] != "x" {
		t.Errorf("expected level 0 to be [x], got %v", levels[0])
	}
	if len(levels[1]) != 2 || levels[1][0] != "y" || levels[1][1] != "z" {
		t.Errorf("expected level 1 to be [y z], got %v", levels[1])
	}
}

func TestLevelizePartitionsAllTasks(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	g, _ := Validate(ids, map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
		"e": nil,
	})

	levels, unresolved := Levelize(g)
	if len(unresolved) != 0 {
		t.Fatalf("expected no unresolved tasks, got %v", unresolved)
	}

	seen := make(map[string]int)
	for _, level := range levels {
		for _, id := range level {
			seen[id]++
		}
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("expected task %s in exactly one level, seen %d times", id, seen[id])
		}
	}
}

func TestLevelizePrerequisitesInEarlierLevels(t *testing.T) {
	g, _ := Validate([]string{"a", "b", "c", "d"}, map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
		"d": {"a", "c"},
	})

	levels, _ := Levelize(g)

	levelOf := make(map[string]int)
	for i, level := range levels {
		for _, id := range level {
			levelOf[id] = i
		}
	}

	for _, id := range g.IDs() {
		for _, dep := range g.Dependencies(id) {
			if levelOf[dep] >= levelOf[id] {
				t.Errorf("task %s (level %d) depends on %s (level %d); prerequisite must be strictly earlier",
					id, levelOf[id], dep, levelOf[dep])
			}
		}
	}
}

func TestLevelizeDeterministicOrder(t *testing.T) {
	declared := map[string][]string{
		"a": nil,
		"b": nil,
		"c": nil,
	}

	for i := 0; i < 10; i++ {
		g, _ := Validate([]string{"a", "b", "c"}, declared)
		levels, _ := Levelize(g)
		if len(levels) != 1 {
			t.Fatalf("expected 1 level, got %d", len(levels))
		}
		if levels[0][0] != "a" || levels[0][1] != "b" || levels[0][2] != "c" {
			t.Fatalf("expected insertion order [a b c], got %v", levels[0])
		}
	}
}

func TestLevelizeCycleResidual(t *testing.T) {
	g, _ := Validate([]string{"a", "b", "c"}, map[string][]string{
		"a": nil,
		"b": {"c"},
		"c": {"b"},
	})

	levels, unresolved := Levelize(g)

	if len(levels) != 1 || levels[0][0] != "a" {
		t.Errorf("expected a alone in level 0, got %v", levels)
	}

	if len(unresolved) != 2 {
		t.Fatalf("expected 2 unresolved tasks, got %v", unresolved)
	}
	if unresolved[0] != "b" || unresolved[1] != "c" {
		t.Errorf("expected unresolved [b c], got %v", unresolved)
	}
}

func TestLevelizeEmptyGraph(t *testing.T) {
	g, _ := Validate(nil, nil)
	levels, unresolved := Levelize(g)
	if len(levels) != 0 || len(unresolved) != 0 {
		t.Errorf("expected no levels for empty graph, got %v / %v", levels, unresolved)
	}
}
