package planner

import (
	"fmt"
	"time"

	"github.com/studypilot/studypilot/internal/syllabus"
)

// DailyPlan summarizes what to do today.
type DailyPlan struct {
	Date           time.Time      `json:"date"`
	Sessions       []StudySession `json:"sessions"`
	TotalMinutes   int            `json:"total_minutes"`
	HasExamUrgency bool           `json:"has_exam_urgency"`
	SRSItemsDue    int            `json:"srs_items_due"`
	MainFocus      string         `json:"main_focus"`
	Message        string         `json:"message"`
}

// TodayPlan extracts today's sessions from a plan and frames them with
// exam urgency and pending reviews.
func TodayPlan(plan *Plan, nextExam *syllabus.Exam, srsItemsDue int, now time.Time) DailyPlan {
	dp := DailyPlan{Date: midnight(now), SRSItemsDue: srsItemsDue}
	if plan != nil {
		dp.Sessions = plan.SessionsOn(now)
	}
	for _, s := range dp.Sessions {
		dp.TotalMinutes += s.DurationMinutes
	}
	if nextExam != nil {
		dp.HasExamUrgency = nextExam.Urgent(now)
	}

	switch {
	case srsItemsDue > 0:
		dp.MainFocus = fmt.Sprintf("Start with %d review items, then continue with planned sessions", srsItemsDue)
	case len(dp.Sessions) > 0:
		dp.MainFocus = dp.Sessions[0].Description
	default:
		dp.MainFocus = "No sessions planned for today - consider a quick review"
	}

	switch {
	case dp.HasExamUrgency:
		dp.Message = fmt.Sprintf("Exam in %d days! Stay focused and you've got this!", nextExam.DaysUntil(now))
	case len(dp.Sessions) > 0:
		dp.Message = "Let's make progress today. Every session counts!"
	default:
		dp.Message = "Rest day? Consider a quick review to maintain momentum."
	}
	return dp
}

// DaySummary is one day inside a week overview.
type DaySummary struct {
	Date         time.Time      `json:"date"`
	Label        string         `json:"label"` // "Monday, September 07"
	Sessions     []StudySession `json:"sessions"`
	TotalMinutes int            `json:"total_minutes"`
}

// WeekSummary is a seven-day view over the active plan.
type WeekSummary struct {
	WeekStart         time.Time    `json:"week_start"`
	TotalSessions     int          `json:"total_sessions"`
	TotalHours        float64      `json:"total_hours"`
	Days              []DaySummary `json:"days"`
	ExamDaysRemaining int          `json:"exam_days_remaining"` // -1 when no exam
}

// WeekOverview groups the next seven days of incomplete sessions by
// day.
func WeekOverview(plan *Plan, nextExam *syllabus.Exam, now time.Time) WeekSummary {
	ws := WeekSummary{WeekStart: midnight(now), ExamDaysRemaining: -1}
	if nextExam != nil {
		ws.ExamDaysRemaining = nextExam.DaysUntil(now)
	}

	var upcoming []StudySession
	if plan != nil {
		upcoming = plan.Upcoming(now, 7)
	}

	var totalMinutes int
	for i := 0; i < 7; i++ {
		day := midnight(now).AddDate(0, 0, i)
		ds := DaySummary{Date: day, Label: day.Format("Monday, January 02")}
		for _, s := range upcoming {
			if sameDay(s.Date, day) {
				ds.Sessions = append(ds.Sessions, s)
				ds.TotalMinutes += s.DurationMinutes
			}
		}
		totalMinutes += ds.TotalMinutes
		ws.Days = append(ws.Days, ds)
	}

	ws.TotalSessions = len(upcoming)
	ws.TotalHours = float64(totalMinutes) / 60
	return ws
}
