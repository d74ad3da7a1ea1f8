// Package graph stores topics and their prerequisite relationships and
// answers closure, ordering, and proximity queries over them.
package graph

import (
	"fmt"
	"log/slog"
	"sort"
)

// EdgeKind classifies how strongly a prerequisite binds.
type EdgeKind int

const (
	// Required edges gate topological ordering and readiness.
	Required EdgeKind = iota
	// Recommended edges inform readiness but never block.
	Recommended
)

// String returns the serialized name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case Required:
		return "required"
	case Recommended:
		return "recommended"
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// ParseEdgeKind converts a serialized name back into an EdgeKind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "required":
		return Required, nil
	case "recommended":
		return Recommended, nil
	}
	return Required, fmt.Errorf("unknown edge kind: %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k EdgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EdgeKind) UnmarshalText(b []byte) error {
	kind, err := ParseEdgeKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Topic is a node in the graph. Identity is the ID; the remaining fields
// are metadata and may be edited after creation.
type Topic struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Weight         float64 `json:"weight"` // relative exam importance, 0-100
	EstimatedHours float64 `json:"estimated_hours"`
	Order          int     `json:"order"`
	Difficulty     int     `json:"difficulty"` // 1-5
}

// Edge is a directed prerequisite relationship: From must be studied
// before To.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Kind     EdgeKind `json:"kind"`
	Strength float64  `json:"strength"`
}

// Related pairs a topic id with its BFS distance from a query topic.
type Related struct {
	ID       string
	Distance int
}

// Graph holds topics in an arena addressed by index, with adjacency kept
// as index lists. String ids appear only at the API boundary.
type Graph struct {
	topics []Topic
	index  map[string]int
	edges  []Edge

	// Adjacency is rebuilt lazily so edges may be added before their
	// endpoints exist without corrupting the index lists.
	dirty      bool
	prereqs    [][]adjEdge // into each topic: its direct prerequisites
	dependents [][]adjEdge // out of each topic: topics depending on it
	diags      []string
}

type adjEdge struct {
	to   int
	kind EdgeKind
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddTopic inserts a topic, or updates the metadata of an existing one.
func (g *Graph) AddTopic(t Topic) {
	if i, ok := g.index[t.ID]; ok {
		g.topics[i] = t
		return
	}
	g.index[t.ID] = len(g.topics)
	g.topics = append(g.topics, t)
	g.dirty = true
}

// AddEdge records a prerequisite relationship with full strength.
func (g *Graph) AddEdge(from, to string, kind EdgeKind) {
	g.AddWeightedEdge(Edge{From: from, To: to, Kind: kind, Strength: 1.0})
}

// AddWeightedEdge records a prerequisite relationship. Edges referencing
// unknown topics are kept (they may resolve once the topic is added) but
// are skipped by all queries and reported via Diagnostics.
func (g *Graph) AddWeightedEdge(e Edge) {
	g.edges = append(g.edges, e)
	g.dirty = true
}

// Topic looks up a topic by id.
func (g *Graph) Topic(id string) (Topic, bool) {
	i, ok := g.index[id]
	if !ok {
		return Topic{}, false
	}
	return g.topics[i], true
}

// Topics returns all topics in insertion order.
func (g *Graph) Topics() []Topic {
	return append([]Topic(nil), g.topics...)
}

// PrerequisiteEdges returns the resolved incoming edges of a topic, in
// edge insertion order. Dangling edges are excluded.
func (g *Graph) PrerequisiteEdges(id string) []Edge {
	if _, ok := g.index[id]; !ok {
		return nil
	}
	var out []Edge
	for _, e := range g.edges {
		if e.To != id {
			continue
		}
		if _, known := g.index[e.From]; !known {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Edges returns all recorded edges, including dangling ones.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Diagnostics returns warnings accumulated during the last adjacency
// rebuild, one per dangling edge reference.
func (g *Graph) Diagnostics() []string {
	g.rebuild()
	return append([]string(nil), g.diags...)
}

// rebuild recomputes the adjacency index lists from the edge list.
func (g *Graph) rebuild() {
	if !g.dirty {
		return
	}
	n := len(g.topics)
	g.prereqs = make([][]adjEdge, n)
	g.dependents = make([][]adjEdge, n)
	g.diags = g.diags[:0]

	for _, e := range g.edges {
		from, okFrom := g.index[e.From]
		to, okTo := g.index[e.To]
		if !okFrom || !okTo {
			missing := e.From
			if okFrom {
				missing = e.To
			}
			g.diags = append(g.diags, fmt.Sprintf("edge %s -> %s references unknown topic %q", e.From, e.To, missing))
			slog.Warn("skipping dangling prerequisite edge",
				"from", e.From,
				"to", e.To,
				"missing", missing,
			)
			continue
		}
		g.prereqs[to] = append(g.prereqs[to], adjEdge{to: from, kind: e.Kind})
		g.dependents[from] = append(g.dependents[from], adjEdge{to: to, kind: e.Kind})
	}
	g.dirty = false
}

// direction selects which adjacency list a traversal follows.
type direction int

const (
	towardPrereqs direction = iota
	towardDependents
)

func (g *Graph) neighbors(i int, dir direction) []adjEdge {
	if dir == towardPrereqs {
		return g.prereqs[i]
	}
	return g.dependents[i]
}

// walk is the shared BFS primitive behind the closure queries. It returns
// indices reachable from start (start excluded) in discovery order,
// visiting each node at most once.
func (g *Graph) walk(start int, dir direction, recursive bool) []int {
	g.rebuild()

	var out []int
	visited := map[int]bool{start: true}
	queue := make([]int, 0, len(g.neighbors(start, dir)))
	for _, a := range g.neighbors(start, dir) {
		queue = append(queue, a.to)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		if !recursive {
			continue
		}
		for _, a := range g.neighbors(cur, dir) {
			queue = append(queue, a.to)
		}
	}
	return out
}

// PrerequisitesOf returns the direct prerequisites of a topic, or the
// full transitive closure when recursive is set. Order is discovery
// order, not distance.
func (g *Graph) PrerequisitesOf(id string, recursive bool) []string {
	return g.closure(id, towardPrereqs, recursive)
}

// DependentsOf returns the topics that require this one, direct or
// transitive.
func (g *Graph) DependentsOf(id string, recursive bool) []string {
	return g.closure(id, towardDependents, recursive)
}

func (g *Graph) closure(id string, dir direction, recursive bool) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	var out []string
	for _, j := range g.walk(i, dir, recursive) {
		out = append(out, g.topics[j].ID)
	}
	return out
}

// RelatedTopics returns topics within maxDistance edges of the given
// topic, following edges in both directions, sorted by distance.
func (g *Graph) RelatedTopics(id string, maxDistance int) []Related {
	g.rebuild()

	start, ok := g.index[id]
	if !ok {
		return nil
	}

	dist := map[int]int{start: 0}
	queue := []int{start}
	var out []Related

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur]
		if d > 0 {
			out = append(out, Related{ID: g.topics[cur].ID, Distance: d})
		}
		if d >= maxDistance {
			continue
		}
		for _, dir := range []direction{towardPrereqs, towardDependents} {
			for _, a := range g.neighbors(cur, dir) {
				if _, seen := dist[a.to]; !seen {
					dist[a.to] = d + 1
					queue = append(queue, a.to)
				}
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Distance < out[b].Distance })
	return out
}

// Gaps returns the topics (targets plus their transitive prerequisites)
// that are not yet in completed, in target-then-prerequisite order.
func (g *Graph) Gaps(completed map[string]bool, targets []string) []string {
	var missing []string
	seen := map[string]bool{}
	for _, target := range targets {
		if completed[target] || seen[target] {
			continue
		}
		missing = append(missing, target)
		seen[target] = true
		for _, p := range g.PrerequisitesOf(target, true) {
			if !completed[p] && !seen[p] {
				missing = append(missing, p)
				seen[p] = true
			}
		}
	}
	return missing
}

// Stats summarizes graph size and shape.
type Stats struct {
	Topics             int
	Edges              int
	ByDifficulty       map[int]int
	AveragePrereqCount float64
}

// Statistics computes summary counts over the graph.
func (g *Graph) Statistics() Stats {
	g.rebuild()
	s := Stats{
		Topics:       len(g.topics),
		Edges:        len(g.edges),
		ByDifficulty: make(map[int]int),
	}
	total := 0
	for i, t := range g.topics {
		s.ByDifficulty[t.Difficulty]++
		total += len(g.prereqs[i])
	}
	if len(g.topics) > 0 {
		s.AveragePrereqCount = float64(total) / float64(len(g.topics))
	}
	return s
}
