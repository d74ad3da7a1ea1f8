// Package readiness classifies whether a learner can productively start
// a topic given the completion status of its prerequisites.
package readiness

import (
	"fmt"
	"strings"

	"github.com/studypilot/studypilot/internal/graph"
	"github.com/studypilot/studypilot/internal/syllabus"
)

// Level classifies readiness to start a topic.
type Level int

const (
	Ready Level = iota
	MostlyReady
	NotReady
	Blocked
)

var levelNames = map[Level]string{
	Ready:       "ready",
	MostlyReady: "mostly_ready",
	NotReady:    "not_ready",
	Blocked:     "blocked",
}

// String returns the serialized name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	for lv, name := range levelNames {
		if name == string(b) {
			*l = lv
			return nil
		}
	}
	return fmt.Errorf("unknown readiness level: %q", string(b))
}

// Confidence is a fixed scalar per level.
func (l Level) Confidence() float64 {
	switch l {
	case Ready:
		return 1.0
	case MostlyReady:
		return 0.7
	case NotReady:
		return 0.4
	case Blocked:
		return 0.2
	}
	return 0
}

// Per-prerequisite remediation time estimates, in minutes.
const (
	missingPrepMinutes = 30
	partialPrepMinutes = 15
)

// Readiness is the assessment for a single topic.
type Readiness struct {
	TopicID              string   `json:"topic_id"`
	TopicName            string   `json:"topic_name"`
	Level                Level    `json:"level"`
	Met                  []string `json:"met"`
	Missing              []string `json:"missing"`
	Partial              []string `json:"partial"`
	Confidence           float64  `json:"confidence"`
	EstimatedPrepMinutes int      `json:"estimated_prep_minutes"`
	Suggestions          []string `json:"suggestions"`
}

// Check assesses readiness for a topic. It is a pure function of the
// graph and the status map.
func Check(g *graph.Graph, statuses syllabus.StatusMap, topicID string) Readiness {
	r := Readiness{TopicID: topicID}
	if t, ok := g.Topic(topicID); ok {
		r.TopicName = t.Name
	}

	var requiredMissing []string
	for _, e := range g.PrerequisiteEdges(topicID) {
		switch classify(statuses.Get(e.From)) {
		case prereqMet:
			r.Met = append(r.Met, e.From)
		case prereqPartial:
			r.Partial = append(r.Partial, e.From)
		case prereqMissing:
			r.Missing = append(r.Missing, e.From)
			if e.Kind == graph.Required {
				requiredMissing = append(requiredMissing, e.From)
			}
		}
	}

	switch {
	case len(requiredMissing) > 0:
		r.Level = Blocked
	case len(r.Missing) > 0:
		r.Level = NotReady
	case len(r.Partial) > 0:
		r.Level = MostlyReady
	default:
		r.Level = Ready
	}

	r.Confidence = r.Level.Confidence()
	r.EstimatedPrepMinutes = missingPrepMinutes*len(r.Missing) + partialPrepMinutes*len(r.Partial)

	if len(requiredMissing) > 0 {
		r.Suggestions = append(r.Suggestions,
			"Complete these required prerequisites first: "+joinFirst(requiredMissing, 3))
	}
	if len(r.Partial) > 0 {
		r.Suggestions = append(r.Suggestions, "Finish or review: "+joinFirst(r.Partial, 3))
	}
	if r.Level == Ready {
		r.Suggestions = append(r.Suggestions, "You're ready to start this topic!")
	}
	return r
}

// CheckAll assesses every topic in the graph, in topic insertion order.
func CheckAll(g *graph.Graph, statuses syllabus.StatusMap) []Readiness {
	topics := g.Topics()
	out := make([]Readiness, 0, len(topics))
	for _, t := range topics {
		out = append(out, Check(g, statuses, t.ID))
	}
	return out
}

type prereqClass int

const (
	prereqMet prereqClass = iota
	prereqPartial
	prereqMissing
)

func classify(s syllabus.Status) prereqClass {
	switch s {
	case syllabus.Learned, syllabus.Mastered, syllabus.Extending:
		return prereqMet
	case syllabus.InProgress, syllabus.Rusty, syllabus.Reinforcing:
		return prereqPartial
	case syllabus.New:
		return prereqMissing
	}
	return prereqMissing
}

func joinFirst(names []string, n int) string {
	if len(names) > n {
		names = names[:n]
	}
	return strings.Join(names, ", ")
}
