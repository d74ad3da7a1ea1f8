package syllabus_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studypilot/studypilot/internal/syllabus"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoaderLoadsTopicsExamsProfile(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "limits.yaml", `
id: limits
name: Limits
weight: 3
estimated_hours: 4
order: 1
difficulty: 2
`)
	writeFile(t, dir, "derivatives.yaml", `
id: derivatives
name: Derivatives
weight: 5
estimated_hours: 6
order: 2
difficulty: 3
prerequisites:
  required: [limits]
`)
	writeFile(t, dir, "exams.yaml", `
exams:
  - name: Midterm
    date: 2026-10-01T00:00:00Z
    kind: partial
    weight: 0.4
    duration_minutes: 90
    topic_ids: [limits, derivatives]
`)
	writeFile(t, dir, "profile.yaml", `
hours_per_week: 10
study_days: [mon, wed, fri]
session_minutes: 60
`)

	l, err := syllabus.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	if got := len(l.AllTopics()); got != 2 {
		t.Fatalf("expected 2 topics, got %d", got)
	}
	d, ok := l.GetTopic("derivatives")
	if !ok {
		t.Fatal("derivatives not loaded")
	}
	if len(d.Prerequisites.Required) != 1 || d.Prerequisites.Required[0] != "limits" {
		t.Errorf("unexpected prerequisites: %+v", d.Prerequisites)
	}

	exams := l.Exams()
	if len(exams) != 1 || exams[0].Name != "Midterm" {
		t.Fatalf("unexpected exams: %+v", exams)
	}
	if !exams[0].Covers("limits") || exams[0].Covers("integrals") {
		t.Error("exam coverage wrong")
	}

	p := l.Profile()
	if p.HoursPerWeek != 10 || p.SessionMinutes != 60 {
		t.Errorf("unexpected profile: %+v", p)
	}
	if wd := p.Weekdays(); !wd[time.Monday] || wd[time.Tuesday] {
		t.Errorf("unexpected weekdays: %v", wd)
	}
}

func TestLoaderSkipsInvalidAndNonTopicYAML(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "broken.yaml", "id: [not: valid")
	writeFile(t, dir, "notes.yaml", "title: just some notes")
	writeFile(t, dir, "limits.yaml", "id: limits\nname: Limits\n")

	l, err := syllabus.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if got := len(l.AllTopics()); got != 1 {
		t.Fatalf("expected 1 topic, got %d", got)
	}
}

func TestLoaderDefaultProfileWhenMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "limits.yaml", "id: limits\nname: Limits\n")

	l, err := syllabus.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if l.Profile().HoursPerWeek != syllabus.DefaultProfile().HoursPerWeek {
		t.Error("expected default profile")
	}
}

func TestBuildGraphWiresPrerequisites(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "limits.yaml", "id: limits\nname: Limits\norder: 1\n")
	writeFile(t, dir, "derivatives.yaml", `
id: derivatives
name: Derivatives
order: 2
prerequisites:
  required: [limits]
  recommended: [limits_history]
`)
	writeFile(t, dir, "limits_history.yaml", "id: limits_history\nname: History of limits\norder: 0\n")

	l, err := syllabus.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	g := l.BuildGraph()
	prereqs := g.PrerequisitesOf("derivatives", true)
	if len(prereqs) != 2 {
		t.Fatalf("expected 2 prerequisites, got %v", prereqs)
	}
}

func TestLoaderImportsWorkbook(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"id", "name", "weight", "hours", "order", "difficulty", "required", "recommended"},
		{"limits", "Limits", 3, 4, 1, 2, "", ""},
		{"derivatives", "Derivatives", 5, 6, 2, 3, "limits", ""},
		{"", "row without id", 1, 1, 3, 1, "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Exams"); err != nil {
		t.Fatal(err)
	}
	examRows := [][]interface{}{
		{"name", "date", "kind", "weight", "duration", "topics"},
		{"Final", "2026-12-15", "final", 60, 120, "limits, derivatives"},
		{"", "2026-12-01", "quiz", 5, 20, "limits"},
		{"Broken date", "someday", "quiz", 5, 20, "limits"},
	}
	for i, row := range examRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Exams", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, "topics.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}

	l, err := syllabus.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if got := len(l.AllTopics()); got != 2 {
		t.Fatalf("expected 2 imported topics, got %d", got)
	}
	d, ok := l.GetTopic("derivatives")
	if !ok || d.EstimatedHours != 6 || len(d.Prerequisites.Required) != 1 {
		t.Errorf("unexpected imported topic: %+v", d)
	}

	exams := l.Exams()
	if len(exams) != 1 {
		t.Fatalf("expected 1 imported exam, got %+v", exams)
	}
	final := exams[0]
	if final.Name != "Final" || final.DurationMinutes != 120 {
		t.Errorf("unexpected exam: %+v", final)
	}
	if len(final.TopicIDs) != 2 || !final.Covers("derivatives") {
		t.Errorf("unexpected exam topics: %v", final.TopicIDs)
	}
}
