package srs_test

import (
	"errors"
	"testing"
	"time"

	"github.com/studypilot/studypilot/internal/srs"
)

var t0 = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func newScheduler() *srs.Scheduler {
	return srs.NewScheduler(srs.DefaultParams())
}

func TestAddIsIdempotent(t *testing.T) {
	s := newScheduler()
	first := s.Add("topic:limits", "topic", "", "Limits", t0)
	second := s.Add("topic:limits", "topic", "", "Renamed", t0.AddDate(0, 0, 5))

	if second.Title != first.Title || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("re-adding mutated the item: %+v", second)
	}
	if len(s.Items()) != 1 {
		t.Fatalf("expected 1 item, got %d", len(s.Items()))
	}
	if !first.Due(t0) {
		t.Error("new items should be due immediately")
	}
}

func TestRecordReviewUnknownItem(t *testing.T) {
	s := newScheduler()
	if _, err := s.RecordReview("ghost", 4, t0); !errors.Is(err, srs.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

// Quality-4 reviews leave easiness at 2.5, so intervals follow the
// canonical 1, 6, ceil(6*2.5)=15 progression.
func TestIntervalProgression(t *testing.T) {
	s := newScheduler()
	s.Add("x", "concept", "", "X", t0)

	now := t0
	wantIntervals := []int{1, 6, 15}
	for i, want := range wantIntervals {
		item, err := s.RecordReview("x", srs.QualityHesitation, now)
		if err != nil {
			t.Fatal(err)
		}
		if item.IntervalDays != want {
			t.Fatalf("review %d: interval = %d, want %d", i+1, item.IntervalDays, want)
		}
		wantNext := now.AddDate(0, 0, want)
		if item.NextReview == nil || !item.NextReview.Equal(wantNext) {
			t.Fatalf("review %d: next review = %v, want %v", i+1, item.NextReview, wantNext)
		}
		now = wantNext
	}
}

// Perfect reviews bump easiness by 0.1 each time, so the third interval
// uses E=2.8 and lands at ceil(6*2.8)=17.
func TestPerfectReviewsGrowEasiness(t *testing.T) {
	s := newScheduler()
	s.Add("x", "concept", "", "X", t0)

	now := t0
	var intervals []int
	for i := 0; i < 3; i++ {
		item, err := s.RecordReview("x", srs.QualityPerfect, now)
		if err != nil {
			t.Fatal(err)
		}
		intervals = append(intervals, item.IntervalDays)
		now = *item.NextReview
	}

	want := []int{1, 6, 17}
	for i := range want {
		if intervals[i] != want[i] {
			t.Fatalf("intervals = %v, want %v", intervals, want)
		}
	}
	// Intervals never shrink while quality stays passing.
	for i := 1; i < len(intervals); i++ {
		if intervals[i] < intervals[i-1] {
			t.Fatalf("interval shrank: %v", intervals)
		}
	}
}

func TestFailureResetsStreak(t *testing.T) {
	s := newScheduler()
	s.Add("x", "concept", "", "X", t0)

	now := t0
	for i := 0; i < 3; i++ {
		item, _ := s.RecordReview("x", srs.QualityPerfect, now)
		now = *item.NextReview
	}

	item, err := s.RecordReview("x", srs.QualityFamiliar, now)
	if err != nil {
		t.Fatal(err)
	}
	if item.Repetitions != 0 || item.IntervalDays != 1 {
		t.Errorf("failure did not reset: reps=%d interval=%d", item.Repetitions, item.IntervalDays)
	}
	// Easiness is untouched on failure; only the streak resets.
	if item.Easiness < srs.DefaultParams().InitialEasiness {
		t.Errorf("failure should not lower easiness, got %v", item.Easiness)
	}
}

func TestEasinessFloor(t *testing.T) {
	s := newScheduler()
	s.Add("x", "concept", "", "X", t0)

	now := t0
	for i := 0; i < 10; i++ {
		item, _ := s.RecordReview("x", srs.QualityDifficult, now)
		if item.Easiness < 1.3 {
			t.Fatalf("easiness dropped below floor: %v", item.Easiness)
		}
		now = *item.NextReview
	}
}

func TestReviewClampsQuality(t *testing.T) {
	s := newScheduler()
	s.Add("x", "concept", "", "X", t0)

	item, err := s.RecordReview("x", 9, t0)
	if err != nil {
		t.Fatal(err)
	}
	if item.CorrectReviews != 1 || item.Easiness <= srs.DefaultParams().InitialEasiness {
		t.Errorf("quality 9 should behave as perfect: %+v", item)
	}

	item, err = s.RecordReview("x", -2, t0)
	if err != nil {
		t.Fatal(err)
	}
	if item.Repetitions != 0 {
		t.Errorf("quality -2 should behave as blackout: %+v", item)
	}
}

func TestDueOrdering(t *testing.T) {
	s := newScheduler()
	s.Add("fresh", "topic", "", "Fresh", t0)
	s.Add("hard", "topic", "", "Hard", t0)
	s.Add("easy", "topic", "", "Easy", t0)

	// Push both reviewed items 10 days overdue, with different easiness.
	past := t0.AddDate(0, 0, -11)
	if _, err := s.RecordReview("hard", srs.QualityDifficult, past); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordReview("easy", srs.QualityPerfect, past); err != nil {
		t.Fatal(err)
	}

	due := s.Due(t0, 0)
	if len(due) != 3 {
		t.Fatalf("expected 3 due items, got %d", len(due))
	}
	// hard and easy are equally overdue; hard sorts first on easiness.
	if due[0].ID != "hard" || due[1].ID != "easy" {
		t.Errorf("unexpected due order: %s, %s, %s", due[0].ID, due[1].ID, due[2].ID)
	}

	if got := s.Due(t0, 2); len(got) != 2 {
		t.Errorf("limit ignored: got %d items", len(got))
	}
}

func TestUpcomingWindow(t *testing.T) {
	s := newScheduler()
	s.Add("soon", "topic", "", "Soon", t0)
	s.Add("later", "topic", "", "Later", t0)

	if _, err := s.RecordReview("soon", srs.QualityHesitation, t0); err != nil { // due in 1 day
		t.Fatal(err)
	}
	if _, err := s.RecordReview("later", srs.QualityHesitation, t0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordReview("later", srs.QualityHesitation, t0.AddDate(0, 0, 1)); err != nil { // due in 6 days from day 1
		t.Fatal(err)
	}

	up := s.Upcoming(t0, 3)
	if len(up) != 1 || up[0].ID != "soon" {
		t.Fatalf("expected only soon within 3 days, got %+v", up)
	}

	up = s.Upcoming(t0, 10)
	if len(up) != 2 || up[0].ID != "soon" || up[1].ID != "later" {
		t.Fatalf("expected soonest-first ordering, got %+v", up)
	}
}

func TestArchiveExcludesFromScheduling(t *testing.T) {
	s := newScheduler()
	s.Add("x", "topic", "", "X", t0)

	if err := s.Archive("x"); err != nil {
		t.Fatal(err)
	}
	if len(s.Due(t0, 0)) != 0 {
		t.Error("archived item still due")
	}
	if len(s.Upcoming(t0, 30)) != 0 {
		t.Error("archived item still upcoming")
	}
	if err := s.Archive("ghost"); !errors.Is(err, srs.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestStatistics(t *testing.T) {
	s := newScheduler()
	if st := s.Statistics(t0); st.TotalItems != 0 {
		t.Fatalf("empty scheduler stats: %+v", st)
	}

	s.Add("a", "topic", "", "A", t0)
	s.Add("b", "exercise", "", "B", t0)
	if _, err := s.RecordReview("a", srs.QualityPerfect, t0); err != nil {
		t.Fatal(err)
	}

	st := s.Statistics(t0)
	if st.TotalItems != 2 || st.LearningItems != 2 || st.MatureItems != 0 {
		t.Errorf("unexpected maturity split: %+v", st)
	}
	if st.DueNow != 1 { // b is still due, a moved a day out
		t.Errorf("DueNow = %d, want 1", st.DueNow)
	}
	if st.ItemsByKind["topic"] != 1 || st.ItemsByKind["exercise"] != 1 {
		t.Errorf("unexpected kind counts: %v", st.ItemsByKind)
	}
	if st.AverageRetention != 50.0 {
		t.Errorf("AverageRetention = %v, want 50.0", st.AverageRetention)
	}
}

func TestRestoreRebuildsState(t *testing.T) {
	s := newScheduler()
	s.Add("a", "topic", "", "A", t0)
	s.Add("b", "topic", "", "B", t0)
	if _, err := s.RecordReview("a", srs.QualityHesitation, t0); err != nil {
		t.Fatal(err)
	}

	snapshot := s.Items()
	restored := newScheduler()
	restored.Restore(snapshot)

	got := restored.Items()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("restore lost order or items: %+v", got)
	}
	if got[0].IntervalDays != 1 || got[0].TotalReviews != 1 {
		t.Errorf("restore lost review state: %+v", got[0])
	}
}

func TestQualityFromExerciseResult(t *testing.T) {
	cases := []struct {
		score, attempts, want int
	}{
		{100, 1, srs.QualityPerfect},
		{95, 2, srs.QualityPerfect},
		{85, 1, srs.QualityHesitation},
		{70, 1, srs.QualityDifficult},
		{45, 1, srs.QualityFamiliar},
		{10, 1, srs.QualityRecognized},
		{0, 1, srs.QualityBlackout},
		{90, 4, srs.QualityDifficult}, // many attempts cap the rating
		{60, 5, srs.QualityFamiliar},
		{30, 4, srs.QualityRecognized},
		{0, 4, srs.QualityBlackout}, // zero score is a blackout at any attempt count
	}
	for _, c := range cases {
		if got := srs.QualityFromExerciseResult(c.score, c.attempts); got != c.want {
			t.Errorf("QualityFromExerciseResult(%d, %d) = %d, want %d", c.score, c.attempts, got, c.want)
		}
	}
}
