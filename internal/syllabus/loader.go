package syllabus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/studypilot/studypilot/internal/graph"
)

// TopicFile is the on-disk YAML shape of a single topic.
type TopicFile struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Weight         float64  `yaml:"weight"`
	EstimatedHours float64  `yaml:"estimated_hours"`
	Order          int      `yaml:"order"`
	Difficulty     int      `yaml:"difficulty"`
	Prerequisites  struct {
		Required    []string `yaml:"required"`
		Recommended []string `yaml:"recommended"`
	} `yaml:"prerequisites"`
}

type examsFile struct {
	Exams []Exam `yaml:"exams"`
}

// Loader loads and caches the syllabus from the filesystem.
type Loader struct {
	rootDir string
	topics  map[string]TopicFile
	order   []string
	exams   []Exam
	profile Profile
	mu      sync.RWMutex
}

// NewLoader creates a new syllabus loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		topics:  make(map[string]TopicFile),
		profile: DefaultProfile(),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading syllabus: %w", err)
	}

	slog.Info("syllabus loaded", "topics", len(l.topics), "exams", len(l.exams))
	return l, nil
}

// GetTopic returns a topic by ID.
func (l *Loader) GetTopic(id string) (TopicFile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.topics[id]
	return t, ok
}

// AllTopics returns all loaded topics in load order.
func (l *Loader) AllTopics() []TopicFile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	topics := make([]TopicFile, 0, len(l.order))
	for _, id := range l.order {
		topics = append(topics, l.topics[id])
	}
	return topics
}

// Exams returns all configured exams, soonest first.
func (l *Loader) Exams() []Exam {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Exam, len(l.exams))
	copy(out, l.exams)
	return out
}

// Profile returns the learner profile, or the default when none was
// configured.
func (l *Loader) Profile() Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile
}

// BuildGraph assembles a topic graph from the loaded topics and their
// prerequisite declarations.
func (l *Loader) BuildGraph() *graph.Graph {
	l.mu.RLock()
	defer l.mu.RUnlock()

	g := graph.New()
	for _, id := range l.order {
		t := l.topics[id]
		g.AddTopic(graph.Topic{
			ID:             t.ID,
			Name:           t.Name,
			Weight:         t.Weight,
			EstimatedHours: t.EstimatedHours,
			Order:          t.Order,
			Difficulty:     t.Difficulty,
		})
	}
	for _, id := range l.order {
		t := l.topics[id]
		for _, p := range t.Prerequisites.Required {
			g.AddEdge(p, t.ID, graph.Required)
		}
		for _, p := range t.Prerequisites.Recommended {
			g.AddEdge(p, t.ID, graph.Recommended)
		}
	}
	return g
}

func (l *Loader) loadAll() error {
	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		switch {
		case base == "exams.yaml" || base == "exams.yml":
			return l.loadExams(path)
		case base == "profile.yaml" || base == "profile.yml":
			return l.loadProfile(path)
		case strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml"):
			return l.loadTopic(path)
		case strings.HasSuffix(base, ".xlsx"):
			return l.loadWorkbook(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sort.SliceStable(l.exams, func(i, j int) bool {
		return l.exams[i].Date.Before(l.exams[j].Date)
	})
	return nil
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var topic TopicFile
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if topic.ID == "" {
		return nil // Not a topic file
	}

	l.put(topic)
	return nil
}

func (l *Loader) loadExams(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f examsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	l.mu.Lock()
	l.exams = append(l.exams, f.Exams...)
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if p.HoursPerWeek <= 0 {
		p.HoursPerWeek = DefaultProfile().HoursPerWeek
	}
	if p.SessionMinutes <= 0 {
		p.SessionMinutes = DefaultProfile().SessionMinutes
	}

	l.mu.Lock()
	l.profile = p
	l.mu.Unlock()
	return nil
}

func (l *Loader) put(topic TopicFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.topics[topic.ID]; !seen {
		l.order = append(l.order, topic.ID)
	}
	l.topics[topic.ID] = topic
}
