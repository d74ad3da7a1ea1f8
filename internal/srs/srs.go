// Package srs implements SM-2 spaced repetition scheduling for review
// items tied to topics and exercises.
package srs

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrItemNotFound is returned when a review is recorded against an
// unknown item.
var ErrItemNotFound = errors.New("review item not found")

// Quality ratings for a review, per SM-2.
const (
	QualityBlackout      = 0 // no memory at all
	QualityRecognized    = 1 // incorrect, remembered once shown
	QualityFamiliar      = 2 // incorrect, but felt close
	QualityDifficult     = 3 // correct with serious difficulty
	QualityHesitation    = 4 // correct after some hesitation
	QualityPerfect       = 5
	qualityPassThreshold = 3
)

// Params control the scheduling algorithm. Zero values are replaced by
// DefaultParams.
type Params struct {
	InitialEasiness    float64
	EasinessFloor      float64
	FirstIntervalDays  int
	SecondIntervalDays int
	MatureIntervalDays int
}

// DefaultParams returns the standard SM-2 parameters.
func DefaultParams() Params {
	return Params{
		InitialEasiness:    2.5,
		EasinessFloor:      1.3,
		FirstIntervalDays:  1,
		SecondIntervalDays: 6,
		MatureIntervalDays: 21,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.InitialEasiness <= 0 {
		p.InitialEasiness = d.InitialEasiness
	}
	if p.EasinessFloor <= 0 {
		p.EasinessFloor = d.EasinessFloor
	}
	if p.FirstIntervalDays <= 0 {
		p.FirstIntervalDays = d.FirstIntervalDays
	}
	if p.SecondIntervalDays <= 0 {
		p.SecondIntervalDays = d.SecondIntervalDays
	}
	if p.MatureIntervalDays <= 0 {
		p.MatureIntervalDays = d.MatureIntervalDays
	}
	return p
}

// Item is a single unit of reviewable material and its scheduling state.
type Item struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"` // topic, exercise, concept, flashcard
	ContentRef string `json:"content_ref,omitempty"`
	Title      string `json:"title"`

	Easiness     float64    `json:"easiness"`
	IntervalDays int        `json:"interval_days"`
	Repetitions  int        `json:"repetitions"`
	LastReview   *time.Time `json:"last_review,omitempty"`
	NextReview   *time.Time `json:"next_review,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	TotalReviews   int       `json:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews"`
	Archived       bool      `json:"archived,omitempty"`
}

// Due reports whether the item needs review at the given time. Items
// never reviewed are due immediately.
func (it Item) Due(now time.Time) bool {
	if it.Archived {
		return false
	}
	return it.NextReview == nil || !now.Before(*it.NextReview)
}

// DaysOverdue returns how many whole days past its next review the item
// is. Not-yet-due items return a negative count.
func (it Item) DaysOverdue(now time.Time) int {
	if it.NextReview == nil {
		return 0
	}
	return int(now.Sub(*it.NextReview).Hours() / 24)
}

// RetentionRate is the fraction of reviews answered correctly.
func (it Item) RetentionRate() float64 {
	if it.TotalReviews == 0 {
		return 0
	}
	return float64(it.CorrectReviews) / float64(it.TotalReviews)
}

// Mature reports whether the item has graduated past the learning phase.
func (it Item) Mature(matureDays int) bool {
	return it.IntervalDays >= matureDays
}

// Stats summarizes the state of the scheduler.
type Stats struct {
	TotalItems       int            `json:"total_items"`
	DueNow           int            `json:"due_now"`
	DueToday         int            `json:"due_today"`
	DueThisWeek      int            `json:"due_this_week"`
	AverageRetention float64        `json:"average_retention"`
	MatureItems      int            `json:"mature_items"`
	LearningItems    int            `json:"learning_items"`
	ItemsByKind      map[string]int `json:"items_by_kind"`
}

// Scheduler tracks review items and applies SM-2 updates. It is not
// safe for concurrent use; callers serialize access.
type Scheduler struct {
	params Params
	items  map[string]*Item
	order  []string
}

// NewScheduler creates a scheduler with the given parameters.
func NewScheduler(params Params) *Scheduler {
	return &Scheduler{
		params: params.withDefaults(),
		items:  make(map[string]*Item),
	}
}

// Params returns the scheduler's effective parameters.
func (s *Scheduler) Params() Params {
	return s.params
}

// Add registers a new item, due immediately. Adding an existing id
// returns the existing item unchanged.
func (s *Scheduler) Add(id, kind, contentRef, title string, now time.Time) Item {
	if existing, ok := s.items[id]; ok {
		return *existing
	}

	due := now
	item := &Item{
		ID:         id,
		Kind:       kind,
		ContentRef: contentRef,
		Title:      title,
		Easiness:   s.params.InitialEasiness,
		NextReview: &due,
		CreatedAt:  now,
	}
	s.items[id] = item
	s.order = append(s.order, id)
	return *item
}

// Get returns an item by id.
func (s *Scheduler) Get(id string) (Item, bool) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Items returns all items in insertion order, archived ones included.
func (s *Scheduler) Items() []Item {
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// RecordReview applies a review result and reschedules the item.
// Quality is clamped to [0, 5]. A failing quality (below 3) resets the
// repetition streak and interval; a passing one grows the interval by
// the SM-2 easiness update.
func (s *Scheduler) RecordReview(id string, quality int, now time.Time) (Item, error) {
	item, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("recording review for %q: %w", id, ErrItemNotFound)
	}

	if quality < 0 {
		quality = 0
	} else if quality > 5 {
		quality = 5
	}

	item.TotalReviews++
	last := now
	item.LastReview = &last
	if quality >= qualityPassThreshold {
		item.CorrectReviews++
	}

	if quality < qualityPassThreshold {
		item.Repetitions = 0
		item.IntervalDays = s.params.FirstIntervalDays
	} else {
		miss := float64(5 - quality)
		item.Easiness = math.Max(
			s.params.EasinessFloor,
			item.Easiness+(0.1-miss*(0.08+miss*0.02)),
		)

		switch item.Repetitions {
		case 0:
			item.IntervalDays = s.params.FirstIntervalDays
		case 1:
			item.IntervalDays = s.params.SecondIntervalDays
		default:
			item.IntervalDays = int(math.Ceil(float64(item.IntervalDays) * item.Easiness))
		}
		item.Repetitions++
	}

	next := now.AddDate(0, 0, item.IntervalDays)
	item.NextReview = &next
	return *item, nil
}

// Due returns items due at the given time, most overdue first, harder
// items (lower easiness) breaking ties. A non-positive limit means no
// limit.
func (s *Scheduler) Due(now time.Time, limit int) []Item {
	var due []Item
	for _, id := range s.order {
		if it := s.items[id]; it.Due(now) {
			due = append(due, *it)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		oi, oj := due[i].DaysOverdue(now), due[j].DaysOverdue(now)
		if oi != oj {
			return oi > oj
		}
		return due[i].Easiness < due[j].Easiness
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due
}

// Upcoming returns items scheduled within the next N days, soonest
// first.
func (s *Scheduler) Upcoming(now time.Time, days int) []Item {
	cutoff := now.AddDate(0, 0, days)

	var upcoming []Item
	for _, id := range s.order {
		it := s.items[id]
		if it.Archived || it.NextReview == nil {
			continue
		}
		if !it.NextReview.After(cutoff) {
			upcoming = append(upcoming, *it)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].NextReview.Before(*upcoming[j].NextReview)
	})
	return upcoming
}

// Archive removes an item from scheduling without deleting its history.
func (s *Scheduler) Archive(id string) error {
	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("archiving %q: %w", id, ErrItemNotFound)
	}
	item.Archived = true
	return nil
}

// Statistics computes aggregate scheduler stats at the given time.
func (s *Scheduler) Statistics(now time.Time) Stats {
	st := Stats{ItemsByKind: make(map[string]int)}
	if len(s.items) == 0 {
		return st
	}

	todayEnd := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	weekEnd := now.AddDate(0, 0, 7)

	var totalRetention float64
	for _, id := range s.order {
		it := s.items[id]
		st.TotalItems++
		st.ItemsByKind[it.Kind]++
		totalRetention += it.RetentionRate()

		if it.Mature(s.params.MatureIntervalDays) {
			st.MatureItems++
		} else {
			st.LearningItems++
		}
		if it.Due(now) {
			st.DueNow++
		}
		if it.NextReview != nil && !it.NextReview.After(todayEnd) {
			st.DueToday++
		}
		if it.NextReview != nil && !it.NextReview.After(weekEnd) {
			st.DueThisWeek++
		}
	}

	st.AverageRetention = math.Round(totalRetention/float64(st.TotalItems)*1000) / 10
	return st
}

// Restore replaces the scheduler's contents with previously persisted
// items, preserving their order.
func (s *Scheduler) Restore(items []Item) {
	s.items = make(map[string]*Item, len(items))
	s.order = s.order[:0]
	for i := range items {
		it := items[i]
		if _, dup := s.items[it.ID]; dup {
			continue
		}
		s.items[it.ID] = &it
		s.order = append(s.order, it.ID)
	}
}

// QualityFromExerciseResult maps an exercise score (0-100) and attempt
// count onto an SM-2 quality rating. Many attempts cap the rating even
// when the final score is high; a zero score is a blackout regardless of
// attempts.
func QualityFromExerciseResult(score, attempts int) int {
	if score <= 0 {
		return QualityBlackout
	}

	if attempts > 3 {
		if score >= 80 {
			return QualityDifficult
		}
		if score >= 50 {
			return QualityFamiliar
		}
		return QualityRecognized
	}

	switch {
	case score >= 95:
		return QualityPerfect
	case score >= 80:
		return QualityHesitation
	case score >= 60:
		return QualityDifficult
	case score >= 40:
		return QualityFamiliar
	default:
		return QualityRecognized
	}
}
