package graph_test

import (
	"testing"

	"github.com/studypilot/studypilot/internal/graph"
)

func buildChain(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.AddTopic(graph.Topic{ID: "variables", Name: "Variables", Difficulty: 1, EstimatedHours: 1})
	g.AddTopic(graph.Topic{ID: "functions", Name: "Functions", Difficulty: 2, EstimatedHours: 2})
	g.AddTopic(graph.Topic{ID: "closures", Name: "Closures", Difficulty: 3, EstimatedHours: 2})
	g.AddEdge("variables", "functions", graph.Required)
	g.AddEdge("functions", "closures", graph.Required)
	return g
}

func TestPrerequisitesOf_Direct(t *testing.T) {
	g := buildChain(t)

	got := g.PrerequisitesOf("closures", false)
	if len(got) != 1 || got[0] != "functions" {
		t.Errorf("PrerequisitesOf(closures, direct) = %v, want [functions]", got)
	}
}

func TestPrerequisitesOf_Recursive(t *testing.T) {
	g := buildChain(t)

	got := g.PrerequisitesOf("closures", true)
	if len(got) != 2 {
		t.Fatalf("PrerequisitesOf(closures, recursive) = %v, want 2 topics", got)
	}
	// Discovery order: direct prerequisite first.
	if got[0] != "functions" || got[1] != "variables" {
		t.Errorf("closure order = %v, want [functions variables]", got)
	}
}

func TestDependentsOf_Recursive(t *testing.T) {
	g := buildChain(t)

	got := g.DependentsOf("variables", true)
	if len(got) != 2 {
		t.Fatalf("DependentsOf(variables, recursive) = %v, want 2 topics", got)
	}
	if got[0] != "functions" || got[1] != "closures" {
		t.Errorf("dependents order = %v, want [functions closures]", got)
	}
}

func TestPrerequisitesOf_UnknownTopic(t *testing.T) {
	g := buildChain(t)

	if got := g.PrerequisitesOf("nonexistent", true); got != nil {
		t.Errorf("PrerequisitesOf(nonexistent) = %v, want nil", got)
	}
}

func TestPrerequisitesOf_VisitsOnce(t *testing.T) {
	// Diamond: d requires b and c, both require a.
	g := graph.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddTopic(graph.Topic{ID: id})
	}
	g.AddEdge("a", "b", graph.Required)
	g.AddEdge("a", "c", graph.Required)
	g.AddEdge("b", "d", graph.Required)
	g.AddEdge("c", "d", graph.Required)

	got := g.PrerequisitesOf("d", true)
	if len(got) != 3 {
		t.Errorf("diamond closure = %v, want exactly 3 topics (a visited once)", got)
	}
}

func TestAddEdge_DanglingReference(t *testing.T) {
	g := graph.New()
	g.AddTopic(graph.Topic{ID: "a"})
	g.AddEdge("ghost", "a", graph.Required)

	// The dangling edge is ignored by queries but surfaced as a diagnostic.
	if got := g.PrerequisitesOf("a", true); got != nil {
		t.Errorf("PrerequisitesOf(a) = %v, want nil (dangling edge ignored)", got)
	}
	diags := g.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("Diagnostics() = %v, want 1 warning", diags)
	}
}

func TestAddEdge_ResolvesWhenTopicAdded(t *testing.T) {
	g := graph.New()
	g.AddTopic(graph.Topic{ID: "a"})
	g.AddEdge("ghost", "a", graph.Required)
	g.AddTopic(graph.Topic{ID: "ghost"})

	got := g.PrerequisitesOf("a", false)
	if len(got) != 1 || got[0] != "ghost" {
		t.Errorf("PrerequisitesOf(a) = %v, want [ghost] after topic added", got)
	}
}

func TestRelatedTopics_SortedByDistance(t *testing.T) {
	g := buildChain(t)

	got := g.RelatedTopics("functions", 2)
	if len(got) != 2 {
		t.Fatalf("RelatedTopics(functions, 2) = %v, want 2", got)
	}
	for _, r := range got {
		if r.Distance != 1 {
			t.Errorf("topic %s at distance %d, want 1 (both are direct neighbors)", r.ID, r.Distance)
		}
	}

	got = g.RelatedTopics("variables", 2)
	if len(got) != 2 {
		t.Fatalf("RelatedTopics(variables, 2) = %v, want 2", got)
	}
	if got[0].Distance > got[1].Distance {
		t.Errorf("related topics not sorted by distance: %v", got)
	}
}

func TestRelatedTopics_RespectsMaxDistance(t *testing.T) {
	g := buildChain(t)

	got := g.RelatedTopics("variables", 1)
	if len(got) != 1 || got[0].ID != "functions" {
		t.Errorf("RelatedTopics(variables, 1) = %v, want [functions]", got)
	}
}

func TestGaps(t *testing.T) {
	g := buildChain(t)

	completed := map[string]bool{"variables": true}
	got := g.Gaps(completed, []string{"closures"})
	if len(got) != 2 {
		t.Fatalf("Gaps() = %v, want 2 topics", got)
	}
	if got[0] != "closures" || got[1] != "functions" {
		t.Errorf("Gaps() = %v, want [closures functions]", got)
	}
}

func TestAddTopic_UpdatesMetadata(t *testing.T) {
	g := graph.New()
	g.AddTopic(graph.Topic{ID: "a", Name: "Old"})
	g.AddTopic(graph.Topic{ID: "a", Name: "New", Weight: 50})

	topic, ok := g.Topic("a")
	if !ok {
		t.Fatal("Topic(a) not found")
	}
	if topic.Name != "New" || topic.Weight != 50 {
		t.Errorf("Topic(a) = %+v, want updated metadata", topic)
	}
	if len(g.Topics()) != 1 {
		t.Errorf("Topics() count = %d, want 1", len(g.Topics()))
	}
}

func TestStatistics(t *testing.T) {
	g := buildChain(t)

	s := g.Statistics()
	if s.Topics != 3 || s.Edges != 2 {
		t.Errorf("Statistics() = %+v, want 3 topics, 2 edges", s)
	}
	if s.ByDifficulty[1] != 1 || s.ByDifficulty[2] != 1 || s.ByDifficulty[3] != 1 {
		t.Errorf("ByDifficulty = %v", s.ByDifficulty)
	}
}
