// Package priority merges topic status, exam coverage, curriculum
// position and due spaced-repetition reviews into one ranked list of
// study candidates.
package priority

import (
	"fmt"
	"sort"
	"time"

	"github.com/studypilot/studypilot/internal/graph"
	"github.com/studypilot/studypilot/internal/srs"
	"github.com/studypilot/studypilot/internal/syllabus"
)

// CandidateKind discriminates what a candidate refers to.
type CandidateKind int

const (
	TopicCandidate CandidateKind = iota
	ReviewCandidate
)

// String returns the serialized name of the kind.
func (k CandidateKind) String() string {
	if k == ReviewCandidate {
		return "review"
	}
	return "topic"
}

// MarshalText implements encoding.TextMarshaler.
func (k CandidateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Candidate is one ranked study action. Ephemeral: recomputed on every
// planning pass, never persisted as source of truth.
type Candidate struct {
	Kind             CandidateKind `json:"kind"`
	Ref              string        `json:"ref"` // topic id or review item id
	Title            string        `json:"title"`
	Score            float64       `json:"score"` // 0-1
	EstimatedMinutes int           `json:"estimated_minutes"`
	Reason           string        `json:"reason"`
}

// Scoring constants. The topic score is assembled from status urgency,
// exam coverage, exam weight and curriculum order, then normalized by
// the maximum attainable raw score so both candidate populations live
// on the same 0-1 scale.
const (
	examInclusionBonus = 30.0
	orderPenalty       = 0.5
	weightScale        = 2.0 // weight is 0-100; contributes at most 2 raw points

	// maxRawScore = rusty(50) + exam bonus(30) + full weight(2).
	maxRawScore = 50.0 + examInclusionBonus + weightScale

	// Due reviews never rank below this floor, so spaced repetition is
	// not starved by new-topic exploration.
	reviewScoreFloor = 0.85

	reviewMinutes = 15
)

func statusPriority(s syllabus.Status) float64 {
	switch s {
	case syllabus.Rusty:
		return 50
	case syllabus.InProgress:
		return 40
	case syllabus.New:
		return 30
	case syllabus.Learned:
		return 10
	case syllabus.Mastered:
		return 0
	case syllabus.Reinforcing, syllabus.Extending:
		return 0
	}
	return 0
}

// Input is the state snapshot the engine ranks over.
type Input struct {
	Graph    *graph.Graph
	Statuses syllabus.StatusMap
	DueItems []srs.Item
	Exam     *syllabus.Exam
	Now      time.Time
}

// Rank produces the ordered candidate list, highest score first. Pure
// function of its input; ties keep first-seen order, so identical
// snapshots yield identical output.
func Rank(in Input) []Candidate {
	var out []Candidate

	for _, t := range in.Graph.Topics() {
		out = append(out, topicCandidate(t, in))
	}
	for _, item := range in.DueItems {
		out = append(out, reviewCandidate(item, in.Now))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func topicCandidate(t graph.Topic, in Input) Candidate {
	status := in.Statuses.Get(t.ID)

	raw := t.Weight / 100 * weightScale
	raw += statusPriority(status)
	raw -= float64(t.Order) * orderPenalty

	reason := fmt.Sprintf("status %s", status)
	if in.Exam != nil && in.Exam.Covers(t.ID) {
		raw += examInclusionBonus
		reason = fmt.Sprintf("status %s, on %s", status, in.Exam.Name)
	}

	minutes := int(t.EstimatedHours * 60)
	return Candidate{
		Kind:             TopicCandidate,
		Ref:              t.ID,
		Title:            t.Name,
		Score:            clamp01(raw / maxRawScore),
		EstimatedMinutes: minutes,
		Reason:           reason,
	}
}

func reviewCandidate(item srs.Item, now time.Time) Candidate {
	overdue := item.DaysOverdue(now)
	if overdue < 0 {
		overdue = 0
	}

	// Harder (low easiness) and more-overdue items climb above the
	// floor, capped at 1.
	boost := float64(overdue)*0.01 + (srs.DefaultParams().InitialEasiness-item.Easiness)*0.05
	if boost < 0 {
		boost = 0
	}

	reason := "review due"
	if overdue > 0 {
		reason = fmt.Sprintf("review %d days overdue", overdue)
	}

	return Candidate{
		Kind:             ReviewCandidate,
		Ref:              item.ID,
		Title:            item.Title,
		Score:            clamp01(reviewScoreFloor + boost),
		EstimatedMinutes: reviewMinutes,
		Reason:           reason,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
