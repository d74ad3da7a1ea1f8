// Package state persists and restores the complete scheduling state of
// one learner as an atomic snapshot: read-entire-state, compute,
// write-entire-state.
package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/studypilot/studypilot/internal/graph"
	"github.com/studypilot/studypilot/internal/planner"
	"github.com/studypilot/studypilot/internal/srs"
	"github.com/studypilot/studypilot/internal/syllabus"
)

// SnapshotVersion is bumped when the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the full serializable state of one learner: graph,
// progress, exams, profile, review items and the active plan.
type Snapshot struct {
	Version  int                `json:"version"`
	SavedAt  time.Time          `json:"saved_at"`
	Topics   []graph.Topic      `json:"topics"`
	Edges    []graph.Edge       `json:"edges"`
	Statuses map[string]string  `json:"statuses"`
	Exams    []syllabus.Exam    `json:"exams"`
	Profile  syllabus.Profile   `json:"profile"`
	Items    []srs.Item         `json:"items"`
	Plan     *planner.Plan      `json:"plan,omitempty"`
}

// Capture assembles a snapshot from live components.
func Capture(g *graph.Graph, statuses syllabus.StatusMap, exams []syllabus.Exam,
	profile syllabus.Profile, sch *srs.Scheduler, plan *planner.Plan, now time.Time) *Snapshot {

	s := &Snapshot{
		Version:  SnapshotVersion,
		SavedAt:  now,
		Topics:   g.Topics(),
		Edges:    g.Edges(),
		Statuses: make(map[string]string, len(statuses)),
		Exams:    exams,
		Profile:  profile,
		Items:    sch.Items(),
		Plan:     plan,
	}
	for id, status := range statuses {
		s.Statuses[id] = status.String()
	}
	return s
}

// Graph rebuilds the topic graph from the snapshot.
func (s *Snapshot) Graph() *graph.Graph {
	g := graph.New()
	for _, t := range s.Topics {
		g.AddTopic(t)
	}
	for _, e := range s.Edges {
		g.AddWeightedEdge(e)
	}
	return g
}

// StatusMap rebuilds the progress map. Unknown status names are
// reported rather than silently defaulted.
func (s *Snapshot) StatusMap() (syllabus.StatusMap, error) {
	m := make(syllabus.StatusMap, len(s.Statuses))
	for id, name := range s.Statuses {
		status, err := syllabus.ParseStatus(name)
		if err != nil {
			return nil, fmt.Errorf("status of topic %q: %w", id, err)
		}
		m[id] = status
	}
	return m, nil
}

// Scheduler rebuilds the spaced-repetition scheduler from the snapshot.
func (s *Snapshot) Scheduler(params srs.Params) *srs.Scheduler {
	sch := srs.NewScheduler(params)
	sch.Restore(s.Items)
	return sch
}

// snapshotSchema guards decoded payloads before any field is trusted.
const snapshotSchema = `{
	"type": "object",
	"required": ["version", "saved_at", "topics", "statuses", "items"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"saved_at": {"type": "string"},
		"topics": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"weight": {"type": "number", "minimum": 0, "maximum": 100}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["from", "to", "kind"]
			}
		},
		"statuses": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "easiness"],
				"properties": {
					"easiness": {"type": "number", "minimum": 1.3}
				}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(snapshotSchema)

// Encode serializes a snapshot to JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates a snapshot payload.
func Decode(data []byte) (*Snapshot, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating snapshot: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("invalid snapshot: %s", strings.Join(problems, "; "))
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", s.Version, SnapshotVersion)
	}
	return &s, nil
}
