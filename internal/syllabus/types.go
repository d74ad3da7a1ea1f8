// Package syllabus holds the learner-facing study configuration: topic
// completion status, exam definitions, and the learner profile.
package syllabus

import (
	"fmt"
	"time"
)

// Status tracks where a topic sits in the learning journey.
type Status int

const (
	New Status = iota
	InProgress
	Learned
	Mastered
	Rusty
	Reinforcing
	Extending
)

var statusNames = map[Status]string{
	New:         "new",
	InProgress:  "in_progress",
	Learned:     "learned",
	Mastered:    "mastered",
	Rusty:       "rusty",
	Reinforcing: "reinforcing",
	Extending:   "extending",
}

// String returns the serialized name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a serialized name back into a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return New, fmt.Errorf("unknown topic status: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Completed reports whether the topic counts as a met prerequisite.
func (s Status) Completed() bool {
	return s == Learned || s == Mastered
}

// Underway reports whether the topic has been started but not completed.
func (s Status) Underway() bool {
	switch s {
	case InProgress, Rusty, Reinforcing, Extending:
		return true
	}
	return false
}

// StatusMap holds per-topic completion status. Missing topics are New.
type StatusMap map[string]Status

// Get returns the status for a topic, defaulting to New.
func (m StatusMap) Get(topicID string) Status {
	return m[topicID]
}

// CompletedSet returns the ids of all completed topics.
func (m StatusMap) CompletedSet() map[string]bool {
	out := make(map[string]bool)
	for id, s := range m {
		if s.Completed() {
			out[id] = true
		}
	}
	return out
}

// Exam describes a scheduled exam and the topics it covers.
type Exam struct {
	Name            string    `json:"name" yaml:"name"`
	Date            time.Time `json:"date" yaml:"date"`
	Kind            string    `json:"kind,omitempty" yaml:"kind"` // final, partial, quiz
	Weight          float64   `json:"weight" yaml:"weight"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	TopicIDs        []string  `json:"topic_ids" yaml:"topic_ids"`
}

// DaysUntil returns whole days between now and the exam date, negative
// when the exam is in the past.
func (e Exam) DaysUntil(now time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	examDay := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
	return int(examDay.Sub(nowDay).Hours() / 24)
}

// Urgent reports whether the exam is within a week.
func (e Exam) Urgent(now time.Time) bool {
	d := e.DaysUntil(now)
	return d >= 0 && d <= 7
}

// Emergency reports whether the exam is within three days.
func (e Exam) Emergency(now time.Time) bool {
	d := e.DaysUntil(now)
	return d >= 0 && d <= 3
}

// Covers reports whether the exam includes the given topic.
func (e Exam) Covers(topicID string) bool {
	for _, id := range e.TopicIDs {
		if id == topicID {
			return true
		}
	}
	return false
}

// NextExam returns the soonest exam that has not already passed.
// Past-dated exams are skipped, not removed from the configuration.
func NextExam(exams []Exam, now time.Time) (Exam, bool) {
	var next Exam
	found := false
	for _, e := range exams {
		if e.DaysUntil(now) < 0 {
			continue
		}
		if !found || e.DaysUntil(now) < next.DaysUntil(now) {
			next = e
			found = true
		}
	}
	return next, found
}

// Profile captures the learner's time budget and study preferences.
type Profile struct {
	HoursPerWeek   float64  `json:"hours_per_week" yaml:"hours_per_week"`
	StudyDays      []string `json:"study_days" yaml:"study_days"` // "mon".."sun"
	SessionMinutes int      `json:"session_minutes" yaml:"session_minutes"`
	PreferredTime  string   `json:"preferred_time,omitempty" yaml:"preferred_time"` // "18:00"
}

// DefaultProfile is used when no profile has been configured.
func DefaultProfile() Profile {
	return Profile{
		HoursPerWeek:   8,
		StudyDays:      []string{"mon", "tue", "wed", "thu", "fri"},
		SessionMinutes: 45,
	}
}

var weekdayNames = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// Weekdays resolves the configured study day names. Unknown names are
// dropped; an empty result falls back to the default weekday set.
func (p Profile) Weekdays() map[time.Weekday]bool {
	out := make(map[time.Weekday]bool)
	for _, name := range p.StudyDays {
		if wd, ok := weekdayNames[name]; ok {
			out[wd] = true
		}
	}
	if len(out) == 0 {
		for _, name := range DefaultProfile().StudyDays {
			out[weekdayNames[name]] = true
		}
	}
	return out
}
