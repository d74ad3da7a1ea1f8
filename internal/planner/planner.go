package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/studypilot/studypilot/internal/graph"
	"github.com/studypilot/studypilot/internal/priority"
	"github.com/studypilot/studypilot/internal/srs"
	"github.com/studypilot/studypilot/internal/syllabus"
)

// Packing constants.
const (
	// DefaultHorizonDays is the planning window when no exam is set.
	DefaultHorizonDays = 90

	// MinSessionMinutes is the smallest slice worth emitting; anything
	// below is skipped rather than planned as a degenerate session.
	MinSessionMinutes = 15

	// Strategy escalation thresholds over needed/available hours.
	intensiveRatio   = 1.5
	examFocusedRatio = 1.0
)

var titleCaser = cases.Title(language.English)

// Planner generates study plans from a state snapshot. It holds no
// mutable state of its own; every call is a pure function of the
// snapshot plus the request.
type Planner struct {
	graph    *graph.Graph
	statuses syllabus.StatusMap
	profile  syllabus.Profile
}

// New creates a planner over the given snapshot.
func New(g *graph.Graph, statuses syllabus.StatusMap, profile syllabus.Profile) *Planner {
	return &Planner{graph: g, statuses: statuses, profile: profile}
}

// Request carries the inputs of one plan generation.
type Request struct {
	Exam         *syllabus.Exam
	HoursPerWeek float64
	Strategy     Strategy
	DueItems     []srs.Item
	// HorizonDays bounds the planning window when no exam sets one;
	// non-positive falls back to DefaultHorizonDays.
	HorizonDays int
	// SessionMinutes is the session length used when the profile leaves
	// it unset.
	SessionMinutes int
	// CompletedMinutes excludes already-done work per topic from the
	// remaining-hours accounting.
	CompletedMinutes map[string]int
	Now              time.Time
}

// Generate produces a new plan. A non-positive time budget yields an
// empty plan with zero confidence rather than an error.
func (p *Planner) Generate(req Request) Plan {
	now := req.Now
	plan := Plan{
		ID:         "plan_" + now.Format("20060102_150405"),
		CreatedAt:  now,
		UpdatedAt:  now,
		TargetExam: req.Exam,
		Strategy:   req.Strategy,
	}

	daysAvailable := req.HorizonDays
	if daysAvailable <= 0 {
		daysAvailable = DefaultHorizonDays
	}
	if req.Exam != nil {
		daysAvailable = req.Exam.DaysUntil(now)
		if daysAvailable < 1 {
			daysAvailable = 1
		}
	}

	if req.HoursPerWeek <= 0 || daysAvailable <= 0 {
		plan.Confidence = 0
		return plan
	}

	hoursAvailable := float64(daysAvailable) / 7 * req.HoursPerWeek

	queue := p.buildQueue(req)
	var hoursNeeded float64
	for _, q := range queue {
		hoursNeeded += float64(q.remainingMinutes) / 60
	}

	switch {
	case hoursNeeded > hoursAvailable*intensiveRatio:
		plan.Strategy = Intensive
	case hoursNeeded > hoursAvailable*examFocusedRatio:
		plan.Strategy = ExamFocused
	}

	plan.Sessions = p.packSessions(queue, daysAvailable, req)
	plan.Sessions = append(plan.Sessions, simulationSessions(req.Exam, now)...)

	sort.SliceStable(plan.Sessions, func(i, j int) bool {
		if !plan.Sessions[i].Date.Equal(plan.Sessions[j].Date) {
			return plan.Sessions[i].Date.Before(plan.Sessions[j].Date)
		}
		return plan.Sessions[i].Priority < plan.Sessions[j].Priority
	})

	var totalMinutes int
	for _, s := range plan.Sessions {
		totalMinutes += s.DurationMinutes
	}
	plan.TotalHoursPlanned = float64(totalMinutes) / 60
	plan.Confidence = confidence(hoursNeeded, hoursAvailable)
	return plan
}

// Adjust maps a circumstance change onto new generation parameters and
// regenerates the whole plan. Graph or exam mutations (topic added or
// removed, date moved) are applied by the caller before the call.
func (p *Planner) Adjust(adj Adjustment, req Request) Plan {
	switch adj {
	case TimeReduced:
		req.Strategy = ExamFocused
	case TimeAdded:
		req.Strategy = Balanced
	case ProgressSlower:
		req.Strategy = Intensive
	case ProgressFaster:
		req.Strategy = Balanced
	case TopicAdded, TopicRemoved, ExamDateChanged:
		// Parameters unchanged; the snapshot already moved.
	}
	return p.Generate(req)
}

// queueEntry is one candidate with its remaining workload.
type queueEntry struct {
	cand             priority.Candidate
	remainingMinutes int
}

// buildQueue ranks the snapshot and keeps candidates that still need
// time: topics not yet learned plus all due reviews.
func (p *Planner) buildQueue(req Request) []queueEntry {
	ranked := priority.Rank(priority.Input{
		Graph:    p.graph,
		Statuses: p.statuses,
		DueItems: req.DueItems,
		Exam:     req.Exam,
		Now:      req.Now,
	})

	var queue []queueEntry
	for _, c := range ranked {
		if c.Kind == priority.TopicCandidate && !needsCoverage(p.statuses.Get(c.Ref)) {
			continue
		}
		remaining := c.EstimatedMinutes - req.CompletedMinutes[c.Ref]
		if remaining <= 0 {
			continue
		}
		queue = append(queue, queueEntry{cand: c, remainingMinutes: remaining})
	}
	return queue
}

func needsCoverage(s syllabus.Status) bool {
	switch s {
	case syllabus.New, syllabus.InProgress, syllabus.Rusty:
		return true
	}
	return false
}

// packSessions walks calendar days forward from today, skipping
// non-study weekdays, and greedily slices the queue head into sessions
// until the day's budget is spent.
func (p *Planner) packSessions(queue []queueEntry, daysAvailable int, req Request) []StudySession {
	studyDays := p.profile.Weekdays()
	hoursPerDay := req.HoursPerWeek / float64(len(studyDays))
	sessionLength := p.profile.SessionMinutes
	if sessionLength <= 0 {
		sessionLength = req.SessionMinutes
	}
	if sessionLength <= 0 {
		sessionLength = syllabus.DefaultProfile().SessionMinutes
	}

	var sessions []StudySession
	sessionID := 0
	head := 0
	today := midnight(req.Now)

	for offset := 0; offset < daysAvailable && head < len(queue); offset++ {
		day := today.AddDate(0, 0, offset)
		if !studyDays[day.Weekday()] {
			continue
		}

		dailyMinutes := int(hoursPerDay * 60)
		planned := 0

		for planned < dailyMinutes && head < len(queue) {
			entry := &queue[head]
			slice := min(sessionLength, dailyMinutes-planned, entry.remainingMinutes)

			if slice < MinSessionMinutes {
				head++
				continue
			}

			sessions = append(sessions, p.session(sessionID, day, slice, entry.cand, head))
			sessionID++
			planned += slice
			entry.remainingMinutes -= slice
			if entry.remainingMinutes <= 0 {
				head++
			}
		}
	}
	return sessions
}

func (p *Planner) session(id int, day time.Time, minutes int, cand priority.Candidate, rank int) StudySession {
	var st SessionType
	if cand.Kind == priority.ReviewCandidate {
		st = ReviewSRS
	} else {
		switch p.statuses.Get(cand.Ref) {
		case syllabus.New:
			st = LearnNew
		case syllabus.Rusty:
			st = ReviewSRS
		case syllabus.Learned:
			st = Reinforce
		default:
			st = LearnNew
		}
	}

	s := StudySession{
		ID:              fmt.Sprintf("session_%d", id),
		Date:            day,
		StartTime:       p.profile.PreferredTime,
		DurationMinutes: minutes,
		Type:            st,
		Description:     sessionDescription(st, cand.Title),
		Priority:        rank + 1,
		TopicID:         cand.Ref,
		TopicName:       cand.Title,
	}
	return s
}

func sessionDescription(st SessionType, title string) string {
	label := titleCaser.String(strings.ReplaceAll(st.String(), "_", " "))
	if title == "" {
		return label
	}
	return label + ": " + title
}

// simulationSessions injects fixed exam dry runs at 3, 7 and 14 days
// before the exam, for offsets that fit the remaining window.
func simulationSessions(exam *syllabus.Exam, now time.Time) []StudySession {
	if exam == nil {
		return nil
	}
	daysUntil := exam.DaysUntil(now)
	if daysUntil <= 3 {
		return nil
	}

	offsets := []int{3, 7, 14}
	var out []StudySession
	for i, offset := range offsets {
		if daysUntil < offset {
			continue
		}
		out = append(out, StudySession{
			ID:              fmt.Sprintf("session_sim_%d", offset),
			Date:            midnight(exam.Date).AddDate(0, 0, -offset),
			DurationMinutes: exam.DurationMinutes,
			Type:            Simulate,
			Description:     fmt.Sprintf("Exam Simulation #%d", i+1),
			Priority:        0,
		})
	}
	return out
}

// confidence buckets the available/needed hour ratio into a 0-100
// score. Nothing needed means nothing can go wrong.
func confidence(needed, available float64) float64 {
	if available == 0 {
		return 0
	}
	if needed == 0 {
		return 95
	}

	switch ratio := available / needed; {
	case ratio >= 1.5:
		return 95
	case ratio >= 1.2:
		return 85
	case ratio >= 1.0:
		return 70
	case ratio >= 0.8:
		return 50
	case ratio >= 0.6:
		return 30
	default:
		return 10
	}
}
