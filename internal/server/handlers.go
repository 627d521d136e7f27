package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/calendar"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
)

// workoutRequest is the body of POST /api/v1/workouts. Weights and reps are
// accepted either as JSON arrays or as the stringified arrays older clients
// send.
type workoutRequest struct {
	Date         string            `json:"date"`
	TemplateName string            `json:"template_name"`
	Exercises    []exerciseRequest `json:"exercises"`
}

type exerciseRequest struct {
	Name    string          `json:"name"`
	Sets    int             `json:"sets"`
	Weights json.RawMessage `json:"weights"`
	Reps    json.RawMessage `json:"reps"`
}

type sessionRequest struct {
	TemplateName string `json:"template_name"`
	Date         string `json:"date"`
}

// repsRequest addresses one cell of an open draft.
type repsRequest struct {
	Exercise int `json:"exercise"`
	Weight   int `json:"weight"`
	Set      int `json:"set"`
	Reps     int `json:"reps"`
}

type reshapeRequest struct {
	Weights json.RawMessage `json:"weights"`
	Sets    int             `json:"sets"`
}

// draftView is an open draft as returned by the session routes.
type draftView struct {
	Date         civil.Date        `json:"date"`
	TemplateName string            `json:"template_name"`
	Exercises    []models.Exercise `json:"exercises"`
	CanSave      bool              `json:"can_save"`
}

func newDraftView(d *session.Draft) draftView {
	return draftView{
		Date:         d.Date(),
		TemplateName: d.TemplateName(),
		Exercises:    d.Exercises(),
		CanSave:      d.CanSave(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Templates())
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.svc.List(r.Context())
	if err != nil {
		// An unreachable database lists as empty.
		s.log.Warn("listing workouts", "error", err)
		writeJSON(w, http.StatusOK, []models.Workout{})
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	draft, err := req.draft()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	saved, err := s.svc.Save(r.Context(), draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// draft validates the request and turns it into a session draft.
func (req workoutRequest) draft() (*session.Draft, error) {
	if req.Date == "" {
		return nil, errors.New("date is required")
	}
	if req.TemplateName == "" {
		return nil, errors.New("template_name is required")
	}
	date, err := codec.NormalizeDate(req.Date)
	if err != nil {
		return nil, err
	}

	exercises := make([]models.Exercise, 0, len(req.Exercises))
	prescriptions := make([]models.Prescription, 0, len(req.Exercises))
	for i, er := range req.Exercises {
		e, err := codec.DecodeExercise(models.ExerciseRecord{
			Name:    er.Name,
			Sets:    er.Sets,
			Weights: string(er.Weights),
			Reps:    string(er.Reps),
		})
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		exercises = append(exercises, e)
		prescriptions = append(prescriptions, models.Prescription{Name: e.Name, Sets: e.Sets, Weights: e.Weights})
	}
	if err := session.Validate(prescriptions); err != nil {
		return nil, err
	}
	return session.DraftFrom(date, req.TemplateName, exercises), nil
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	date, err := codec.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	workout, err := s.svc.Get(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handlePreviousWorkout(w http.ResponseWriter, r *http.Request) {
	template := r.URL.Query().Get("template")
	if template == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template parameter required"})
		return
	}
	date, err := s.dateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	prev, err := s.svc.Previous(r.Context(), template, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"previous": prev})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	date, err := s.dateParam(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	sess, err := s.svc.Start(r.Context(), req.TemplateName, date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	date, err := codec.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	d, err := s.svc.OpenDraft(date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(d))
}

func (s *Server) handleSetReps(w http.ResponseWriter, r *http.Request) {
	date, err := codec.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	var req repsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	reps, err := s.svc.SetReps(date, req.Exercise, req.Weight, req.Set, req.Reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.svc.OpenDraft(date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reps": reps, "can_save": d.CanSave()})
}

func (s *Server) handleReshapeExercise(w http.ResponseWriter, r *http.Request) {
	date, err := codec.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise index"})
		return
	}
	var req reshapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	weights, err := codec.DecodeWeights(string(req.Weights))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if _, err := s.svc.Reshape(date, index, weights, req.Sets); err != nil {
		s.writeError(w, err)
		return
	}
	d, err := s.svc.OpenDraft(date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftView(d))
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	date, err := codec.NormalizeDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	saved, err := s.svc.SaveDraft(r.Context(), date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	m := calendar.MonthOf(s.svc.Today())
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		m.Year = year
	}
	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
			return
		}
		m.Month = time.Month(month)
	}

	view, err := s.svc.Calendar(r.Context(), m)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.QuickAdd(r.Context()))
}

// dateParam parses a date, defaulting to today when empty.
func (s *Server) dateParam(v string) (civil.Date, error) {
	if v == "" {
		return s.svc.Today(), nil
	}
	return codec.NormalizeDate(v)
}

// writeError maps tracker errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnknownTemplate), errors.Is(err, models.ErrNoDraft):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateDate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only one workout per day"})
	case errors.Is(err, models.ErrIncomplete):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "record at least one set before saving"})
	case errors.Is(err, models.ErrCorruptRecord):
		s.log.Error("unreadable workout record", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "workout record unavailable"})
	case errors.Is(err, models.ErrInvalidTemplate), errors.Is(err, models.ErrInvalidCell):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrUnavailable):
		s.log.Error("storage unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "database not ready"})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
