package syllabus

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Workbook column layout for topic imports. The first row is a header
// and is skipped.
const (
	colID = iota
	colName
	colWeight
	colHours
	colOrder
	colDifficulty
	colRequired
	colRecommended
)

// Column layout of the optional "Exams" sheet.
const (
	colExamName = iota
	colExamDate
	colExamKind
	colExamWeight
	colExamDuration
	colExamTopics
)

const examSheetName = "Exams"

// loadWorkbook imports topics from a spreadsheet. Each row becomes one
// topic; prerequisite columns hold comma-separated topic ids.
func (l *Loader) loadWorkbook(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return fmt.Errorf("reading workbook %s: %w", path, err)
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		topic, ok := topicFromRow(row)
		if !ok {
			slog.Warn("skipping invalid workbook row", "path", path, "row", i+1)
			continue
		}
		l.put(topic)
		imported++
	}

	exams := l.loadExamSheet(f, path)

	slog.Info("workbook imported", "path", path, "topics", imported, "exams", exams)
	return nil
}

// loadExamSheet imports exams from the optional "Exams" sheet. Rows with
// an unparseable date are skipped; the sheet being absent is not an
// error.
func (l *Loader) loadExamSheet(f *excelize.File, path string) int {
	rows, err := f.GetRows(examSheetName)
	if err != nil {
		return 0
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		exam, ok := examFromRow(row)
		if !ok {
			slog.Warn("skipping invalid exam row", "path", path, "row", i+1)
			continue
		}
		l.mu.Lock()
		l.exams = append(l.exams, exam)
		l.mu.Unlock()
		imported++
	}
	return imported
}

func topicFromRow(row []string) (TopicFile, bool) {
	var t TopicFile
	t.ID = cell(row, colID)
	if t.ID == "" {
		return t, false
	}
	t.Name = cell(row, colName)
	t.Weight = cellFloat(row, colWeight)
	t.EstimatedHours = cellFloat(row, colHours)
	t.Order = int(cellFloat(row, colOrder))
	t.Difficulty = int(cellFloat(row, colDifficulty))
	t.Prerequisites.Required = cellList(row, colRequired)
	t.Prerequisites.Recommended = cellList(row, colRecommended)
	return t, true
}

func examFromRow(row []string) (Exam, bool) {
	var e Exam
	e.Name = cell(row, colExamName)
	if e.Name == "" {
		return e, false
	}
	date, err := time.Parse("2006-01-02", cell(row, colExamDate))
	if err != nil {
		return e, false
	}
	e.Date = date
	e.Kind = cell(row, colExamKind)
	e.Weight = cellFloat(row, colExamWeight)
	e.DurationMinutes = int(cellFloat(row, colExamDuration))
	e.TopicIDs = cellList(row, colExamTopics)
	return e, true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellFloat(row []string, i int) float64 {
	v, err := strconv.ParseFloat(cell(row, i), 64)
	if err != nil {
		return 0
	}
	return v
}

func cellList(row []string, i int) []string {
	raw := cell(row, i)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
