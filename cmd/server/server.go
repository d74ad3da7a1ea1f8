package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/studypilot/studypilot/internal/planner"
	"github.com/studypilot/studypilot/internal/platform/cache"
	"github.com/studypilot/studypilot/internal/platform/config"
	"github.com/studypilot/studypilot/internal/platform/database"
	"github.com/studypilot/studypilot/internal/priority"
	"github.com/studypilot/studypilot/internal/readiness"
	"github.com/studypilot/studypilot/internal/srs"
	"github.com/studypilot/studypilot/internal/state"
	"github.com/studypilot/studypilot/internal/syllabus"
)

// server wires the scheduling core to HTTP. Snapshot read-compute-write
// cycles are serialized: the core assumes a single in-process writer.
type server struct {
	cfg    *config.Config
	loader *syllabus.Loader
	store  state.Store
	plans  *cache.PlanCache
	db     *database.DB

	mu  sync.Mutex
	now func() time.Time
}

func newServer(cfg *config.Config, loader *syllabus.Loader, store state.Store, plans *cache.PlanCache, db *database.DB) *server {
	return &server{
		cfg:    cfg,
		loader: loader,
		store:  store,
		plans:  plans,
		db:     db,
		now:    time.Now,
	}
}

func (s *server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/plan", s.handleGetPlan)
	mux.HandleFunc("POST /api/plan/generate", s.handleGeneratePlan)
	mux.HandleFunc("POST /api/plan/adjust", s.handleAdjustPlan)
	mux.HandleFunc("GET /api/plan/today", s.handleToday)
	mux.HandleFunc("GET /api/plan/week", s.handleWeek)
	mux.HandleFunc("POST /api/plan/sessions/{id}/complete", s.handleCompleteSession)

	mux.HandleFunc("GET /api/recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /api/reviews/due", s.handleReviewsDue)
	mux.HandleFunc("POST /api/reviews/{id}", s.handleRecordReview)
	mux.HandleFunc("GET /api/readiness", s.handleReadinessAll)
	mux.HandleFunc("GET /api/readiness/{topic}", s.handleReadiness)
	mux.HandleFunc("PUT /api/topics/{id}/status", s.handleSetStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			httpError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func learnerID(r *http.Request) string {
	if id := r.URL.Query().Get("learner"); id != "" {
		return id
	}
	return "default"
}

// loadOrBootstrap returns the learner's snapshot, creating a fresh one
// from the syllabus on first contact.
func (s *server) loadOrBootstrap(r *http.Request, learner string) (*state.Snapshot, error) {
	snap, err := s.store.Load(r.Context(), learner)
	if errors.Is(err, state.ErrSnapshotNotFound) {
		g := s.loader.BuildGraph()
		sch := srs.NewScheduler(srs.DefaultParams())
		snap = state.Capture(g, syllabus.StatusMap{}, s.loader.Exams(), s.loader.Profile(), sch, nil, s.now())
		return snap, nil
	}
	return snap, err
}

func (s *server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	learner := learnerID(r)

	if s.plans != nil {
		if plan, err := s.plans.Get(r.Context(), learner); err == nil {
			writeJSON(w, http.StatusOK, plan)
			return
		}
	}

	snap, err := s.loadOrBootstrap(r, learner)
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	if snap.Plan == nil {
		httpError(w, http.StatusNotFound, "no plan generated yet")
		return
	}
	writeJSON(w, http.StatusOK, snap.Plan)
}

type generateRequest struct {
	Exam         string  `json:"exam,omitempty"`
	HoursPerWeek float64 `json:"hours_per_week,omitempty"`
	Strategy     string  `json:"strategy,omitempty"`
}

func (s *server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.regenerate(w, r, func(pl *planner.Planner, preq planner.Request) planner.Plan {
		return pl.Generate(preq)
	}, req)
}

type adjustRequest struct {
	generateRequest
	Adjustment string `json:"adjustment"`
}

var adjustments = map[string]planner.Adjustment{
	"time_added":        planner.TimeAdded,
	"time_reduced":      planner.TimeReduced,
	"topic_added":       planner.TopicAdded,
	"topic_removed":     planner.TopicRemoved,
	"exam_date_changed": planner.ExamDateChanged,
	"progress_faster":   planner.ProgressFaster,
	"progress_slower":   planner.ProgressSlower,
}

func (s *server) handleAdjustPlan(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	adj, ok := adjustments[req.Adjustment]
	if !ok {
		httpError(w, http.StatusBadRequest, "unknown adjustment: "+req.Adjustment)
		return
	}
	s.regenerate(w, r, func(pl *planner.Planner, preq planner.Request) planner.Plan {
		return pl.Adjust(adj, preq)
	}, req.generateRequest)
}

// regenerate runs one full load-plan-save cycle under the writer lock.
func (s *server) regenerate(w http.ResponseWriter, r *http.Request,
	run func(*planner.Planner, planner.Request) planner.Plan, req generateRequest) {

	s.mu.Lock()
	defer s.mu.Unlock()

	learner := learnerID(r)
	snap, err := s.loadOrBootstrap(r, learner)
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}

	g := snap.Graph()
	statuses, err := snap.StatusMap()
	if err != nil {
		serverError(w, "decoding statuses", err)
		return
	}
	sch := snap.Scheduler(srs.DefaultParams())
	now := s.now()

	exam := s.pickExam(snap.Exams, req.Exam, now)
	if req.Exam != "" && exam == nil {
		httpError(w, http.StatusNotFound, "unknown exam: "+req.Exam)
		return
	}
	hours := req.HoursPerWeek
	if hours == 0 {
		hours = snap.Profile.HoursPerWeek
	}
	if hours == 0 {
		hours = s.cfg.Planner.HoursPerWeek
	}

	var strategy planner.Strategy
	if req.Strategy != "" {
		if err := strategy.UnmarshalText([]byte(req.Strategy)); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	preq := planner.Request{
		Exam:           exam,
		HoursPerWeek:   hours,
		Strategy:       strategy,
		DueItems:       sch.Due(now, s.cfg.Planner.DueItemLimit),
		HorizonDays:    s.cfg.Planner.HorizonDays,
		SessionMinutes: s.cfg.Planner.SessionMinutes,
		Now:            now,
	}
	if snap.Plan != nil {
		preq.CompletedMinutes = snap.Plan.CompletedMinutesByTopic()
	}

	pl := planner.New(g, statuses, snap.Profile)
	plan := run(pl, preq)

	snap.Plan = &plan
	snap.SavedAt = now
	if err := s.store.Save(r.Context(), learner, snap); err != nil {
		serverError(w, "saving snapshot", err)
		return
	}
	s.cachePlan(r, learner, &plan)

	writeJSON(w, http.StatusOK, plan)
}

func (s *server) pickExam(exams []syllabus.Exam, name string, now time.Time) *syllabus.Exam {
	if name != "" {
		for i := range exams {
			if strings.EqualFold(exams[i].Name, name) {
				return &exams[i]
			}
		}
		return nil
	}
	if next, ok := syllabus.NextExam(exams, now); ok {
		return &next
	}
	return nil
}

func (s *server) cachePlan(r *http.Request, learner string, plan *planner.Plan) {
	if s.plans == nil {
		return
	}
	if err := s.plans.Set(r.Context(), learner, plan); err != nil {
		slog.Warn("failed to cache plan", "learner", learner, "error", err)
	}
}

func (s *server) handleToday(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	now := s.now()
	sch := snap.Scheduler(srs.DefaultParams())
	var next *syllabus.Exam
	if n, ok := syllabus.NextExam(snap.Exams, now); ok {
		next = &n
	}
	writeJSON(w, http.StatusOK, planner.TodayPlan(snap.Plan, next, len(sch.Due(now, 0)), now))
}

func (s *server) handleWeek(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	now := s.now()
	var next *syllabus.Exam
	if n, ok := syllabus.NextExam(snap.Exams, now); ok {
		next = &n
	}
	writeJSON(w, http.StatusOK, planner.WeekOverview(snap.Plan, next, now))
}

type completeRequest struct {
	ActualMinutes int    `json:"actual_minutes"`
	Notes         string `json:"notes,omitempty"`
}

func (s *server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	learner := learnerID(r)
	snap, err := s.loadOrBootstrap(r, learner)
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	if snap.Plan == nil {
		httpError(w, http.StatusNotFound, "no plan generated yet")
		return
	}

	if err := snap.Plan.MarkComplete(r.PathValue("id"), req.ActualMinutes, req.Notes, s.now()); err != nil {
		if errors.Is(err, planner.ErrSessionNotFound) {
			httpError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, "completing session", err)
		return
	}

	if err := s.store.Save(r.Context(), learner, snap); err != nil {
		serverError(w, "saving snapshot", err)
		return
	}
	s.cachePlan(r, learner, snap.Plan)
	writeJSON(w, http.StatusOK, snap.Plan)
}

func (s *server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	statuses, err := snap.StatusMap()
	if err != nil {
		serverError(w, "decoding statuses", err)
		return
	}
	now := s.now()
	sch := snap.Scheduler(srs.DefaultParams())

	in := priority.Input{
		Graph:    snap.Graph(),
		Statuses: statuses,
		DueItems: sch.Due(now, s.cfg.Planner.DueItemLimit),
		Now:      now,
	}
	if next, ok := syllabus.NextExam(snap.Exams, now); ok {
		in.Exam = &next
	}
	writeJSON(w, http.StatusOK, priority.Rank(in))
}

func (s *server) handleReviewsDue(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	sch := snap.Scheduler(srs.DefaultParams())
	due := sch.Due(s.now(), s.cfg.Planner.DueItemLimit)
	if due == nil {
		due = []srs.Item{}
	}
	writeJSON(w, http.StatusOK, due)
}

type reviewRequest struct {
	Quality  *int `json:"quality,omitempty"`
	Score    *int `json:"score,omitempty"`
	Attempts int  `json:"attempts,omitempty"`
}

func (s *server) handleRecordReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	var quality int
	switch {
	case req.Quality != nil:
		quality = *req.Quality
	case req.Score != nil:
		quality = srs.QualityFromExerciseResult(*req.Score, req.Attempts)
	default:
		httpError(w, http.StatusBadRequest, "quality or score is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	learner := learnerID(r)
	snap, err := s.loadOrBootstrap(r, learner)
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}

	sch := snap.Scheduler(srs.DefaultParams())
	item, err := sch.RecordReview(r.PathValue("id"), quality, s.now())
	if err != nil {
		if errors.Is(err, srs.ErrItemNotFound) {
			httpError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, "recording review", err)
		return
	}

	snap.Items = sch.Items()
	if err := s.store.Save(r.Context(), learner, snap); err != nil {
		serverError(w, "saving snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	statuses, err := snap.StatusMap()
	if err != nil {
		serverError(w, "decoding statuses", err)
		return
	}

	g := snap.Graph()
	topic := r.PathValue("topic")
	if _, ok := g.Topic(topic); !ok {
		httpError(w, http.StatusNotFound, "unknown topic: "+topic)
		return
	}
	writeJSON(w, http.StatusOK, readiness.Check(g, statuses, topic))
}

func (s *server) handleReadinessAll(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	statuses, err := snap.StatusMap()
	if err != nil {
		serverError(w, "decoding statuses", err)
		return
	}
	writeJSON(w, http.StatusOK, readiness.CheckAll(snap.Graph(), statuses))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := syllabus.ParseStatus(req.Status)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	learner := learnerID(r)
	snap, err := s.loadOrBootstrap(r, learner)
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}

	g := snap.Graph()
	topicID := r.PathValue("id")
	topic, ok := g.Topic(topicID)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown topic: "+topicID)
		return
	}

	snap.Statuses[topicID] = status.String()

	// First completion puts the topic under spaced repetition.
	if status.Completed() {
		sch := snap.Scheduler(srs.DefaultParams())
		sch.Add("topic:"+topicID, "topic", topicID, topic.Name, s.now())
		snap.Items = sch.Items()
	}

	if err := s.store.Save(r.Context(), learner, snap); err != nil {
		serverError(w, "saving snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"topic_id": topicID, "status": status.String()})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadOrBootstrap(r, learnerID(r))
	if err != nil {
		serverError(w, "loading snapshot", err)
		return
	}
	sch := snap.Scheduler(srs.DefaultParams())
	writeJSON(w, http.StatusOK, map[string]any{
		"graph":   snap.Graph().Statistics(),
		"reviews": sch.Statistics(s.now()),
	})
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, context string, err error) {
	slog.Error(context, "error", err)
	httpError(w, http.StatusInternalServerError, context)
}
