// Package planner turns ranked study candidates and a weekly time
// budget into a concrete dated study plan.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/studypilot/studypilot/internal/syllabus"
)

// ErrSessionNotFound is returned when completing an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionType classifies what a study session is for.
type SessionType int

const (
	LearnNew SessionType = iota
	Reinforce
	Extend
	ReviewSRS
	ExamPrep
	Simulate
	Rest
)

var sessionTypeNames = map[SessionType]string{
	LearnNew:  "learn_new",
	Reinforce: "reinforce",
	Extend:    "extend",
	ReviewSRS: "review_srs",
	ExamPrep:  "exam_prep",
	Simulate:  "simulate",
	Rest:      "rest",
}

// String returns the serialized name of the session type.
func (t SessionType) String() string {
	if name, ok := sessionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SessionType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t SessionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SessionType) UnmarshalText(b []byte) error {
	for st, name := range sessionTypeNames {
		if name == string(b) {
			*t = st
			return nil
		}
	}
	return fmt.Errorf("unknown session type: %q", string(b))
}

// Strategy is a planning hint consumed by session-type selection and
// plan prose, not by the packing arithmetic.
type Strategy int

const (
	Balanced Strategy = iota
	Intensive
	ExamFocused
)

var strategyNames = map[Strategy]string{
	Balanced:    "balanced",
	Intensive:   "intensive",
	ExamFocused: "exam_focused",
}

// String returns the serialized name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	for st, name := range strategyNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown strategy: %q", string(b))
}

// Adjustment names a circumstance change that triggers replanning.
// Every adjustment maps to a parameter change followed by a full
// regeneration; plans are never patched in place.
type Adjustment int

const (
	TimeAdded Adjustment = iota
	TimeReduced
	TopicAdded
	TopicRemoved
	ExamDateChanged
	ProgressFaster
	ProgressSlower
)

// StudySession is one planned block of study on a specific date.
type StudySession struct {
	ID              string      `json:"id"`
	Date            time.Time   `json:"date"`
	StartTime       string      `json:"start_time,omitempty"` // "18:00"
	DurationMinutes int         `json:"duration_minutes"`
	Type            SessionType `json:"session_type"`
	TopicID         string      `json:"topic_id,omitempty"`
	TopicName       string      `json:"topic_name,omitempty"`
	Description     string      `json:"description"`
	Priority        int         `json:"priority"` // 0 = highest
	Completed       bool        `json:"is_completed"`
	ActualMinutes   int         `json:"actual_minutes,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// Plan is a complete dated study plan. One plan is active per learner;
// regeneration supersedes it wholesale.
type Plan struct {
	ID                string         `json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	TargetExam        *syllabus.Exam `json:"target_exam,omitempty"`
	Sessions          []StudySession `json:"sessions"`
	TotalHoursPlanned float64        `json:"total_hours_planned"`
	HoursCompleted    float64        `json:"hours_completed"`
	Strategy          Strategy       `json:"strategy"`
	Confidence        float64        `json:"confidence"` // 0-100
}

// SessionsOn returns the sessions planned for a calendar date.
func (p *Plan) SessionsOn(day time.Time) []StudySession {
	var out []StudySession
	for _, s := range p.Sessions {
		if sameDay(s.Date, day) {
			out = append(out, s)
		}
	}
	return out
}

// Upcoming returns incomplete sessions within the next N days.
func (p *Plan) Upcoming(now time.Time, days int) []StudySession {
	start := midnight(now)
	end := start.AddDate(0, 0, days)

	var out []StudySession
	for _, s := range p.Sessions {
		if s.Completed {
			continue
		}
		d := midnight(s.Date)
		if !d.Before(start) && !d.After(end) {
			out = append(out, s)
		}
	}
	return out
}

// ProgressPercent is completed hours over planned hours, capped at 100.
func (p *Plan) ProgressPercent() float64 {
	if p.TotalHoursPlanned == 0 {
		return 0
	}
	pct := p.HoursCompleted / p.TotalHoursPlanned * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// MarkComplete records that a session was carried out.
func (p *Plan) MarkComplete(sessionID string, actualMinutes int, notes string, now time.Time) error {
	for i := range p.Sessions {
		if p.Sessions[i].ID != sessionID {
			continue
		}
		p.Sessions[i].Completed = true
		p.Sessions[i].ActualMinutes = actualMinutes
		p.Sessions[i].Notes = notes
		p.HoursCompleted += float64(actualMinutes) / 60
		p.UpdatedAt = now
		return nil
	}
	return fmt.Errorf("marking %q complete: %w", sessionID, ErrSessionNotFound)
}

// CompletedMinutesByTopic sums actual minutes spent per topic, for
// excluding finished work from the next regeneration.
func (p *Plan) CompletedMinutesByTopic() map[string]int {
	out := make(map[string]int)
	for _, s := range p.Sessions {
		if s.Completed && s.TopicID != "" {
			out[s.TopicID] += s.ActualMinutes
		}
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return midnight(a).Equal(midnight(b))
}
