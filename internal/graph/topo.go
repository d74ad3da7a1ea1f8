package graph

import "sort"

// Ordering is the result of a topological sort over required edges.
// Unresolved is non-empty when a cycle among required edges left nodes
// at positive in-degree; those nodes carry no ordering guarantee but the
// rest of Order remains valid.
type Ordering struct {
	Order      []string
	Unresolved []string
}

// HasCycle reports whether the sort failed to place every node.
func (o Ordering) HasCycle() bool {
	return len(o.Unresolved) > 0
}

// TopologicalOrder sorts subset plus its transitive prerequisites so that
// every required prerequisite appears before the topics needing it.
// Kahn's algorithm over required edges only; ties break by (difficulty
// ascending, estimated hours ascending, id) for determinism. Unknown ids
// in subset are skipped (they are reported via Diagnostics elsewhere).
func (g *Graph) TopologicalOrder(subset []string) Ordering {
	g.rebuild()

	// Close the subset over transitive prerequisites.
	inSet := map[int]bool{}
	for _, id := range subset {
		i, ok := g.index[id]
		if !ok {
			continue
		}
		if !inSet[i] {
			inSet[i] = true
		}
		for _, j := range g.walk(i, towardPrereqs, true) {
			inSet[j] = true
		}
	}

	// In-degree counts only required-edge predecessors inside the set.
	inDegree := map[int]int{}
	for i := range inSet {
		inDegree[i] = 0
	}
	for i := range inSet {
		for _, a := range g.prereqs[i] {
			if a.kind == Required && inSet[a.to] {
				inDegree[i]++
			}
		}
	}

	less := func(a, b int) bool {
		ta, tb := g.topics[a], g.topics[b]
		if ta.Difficulty != tb.Difficulty {
			return ta.Difficulty < tb.Difficulty
		}
		if ta.EstimatedHours != tb.EstimatedHours {
			return ta.EstimatedHours < tb.EstimatedHours
		}
		return ta.ID < tb.ID
	}

	var ready []int
	for i, d := range inDegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	sort.Slice(ready, func(a, b int) bool { return less(ready[a], ready[b]) })

	var order []string
	placed := map[int]bool{}
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, g.topics[cur].ID)
		placed[cur] = true

		for _, a := range g.dependents[cur] {
			if a.kind != Required || !inSet[a.to] {
				continue
			}
			inDegree[a.to]--
			if inDegree[a.to] == 0 {
				ready = append(ready, a.to)
			}
		}
		sort.Slice(ready, func(a, b int) bool { return less(ready[a], ready[b]) })
	}

	var unresolved []string
	if len(order) < len(inSet) {
		for i := range inSet {
			if !placed[i] {
				unresolved = append(unresolved, g.topics[i].ID)
			}
		}
		sort.Strings(unresolved)
	}

	return Ordering{Order: order, Unresolved: unresolved}
}

// LearningPath computes the ordered list of topics to study to reach the
// targets, excluding anything already completed.
func (g *Graph) LearningPath(targets []string, completed map[string]bool) Ordering {
	o := g.TopologicalOrder(targets)
	var remaining []string
	for _, id := range o.Order {
		if !completed[id] {
			remaining = append(remaining, id)
		}
	}
	return Ordering{Order: remaining, Unresolved: o.Unresolved}
}
