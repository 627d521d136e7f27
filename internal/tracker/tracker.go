// Package tracker ties the template catalog, the workout store and the
// session, history and calendar logic into the operations the HTTP and MCP
// front ends call.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/calendar"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// Service is safe for concurrent use. Drafts opened by Start are kept by date
// until SaveDraft persists them; a later Start for the same date replaces the
// open draft.
type Service struct {
	store   storage.Store
	catalog *catalog.Catalog
	loc     *time.Location
	now     func() time.Time
	log     *slog.Logger

	mu     sync.Mutex
	drafts map[civil.Date]*session.Draft
}

// New creates a Service. loc decides which calendar day "today" is.
func New(store storage.Store, cat *catalog.Catalog, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:   store,
		catalog: cat,
		loc:     loc,
		now:     time.Now,
		log:     log,
		drafts:  make(map[civil.Date]*session.Draft),
	}
}

// Template is a catalog entry with its prescriptions.
type Template struct {
	catalog.Summary
	Exercises []models.Prescription `json:"exercises"`
}

// Session is the result of Start. When the day already has a workout the
// action is OpenExisting and Existing is set; otherwise Draft holds the new
// session and Hints the previous reps for each of its cells.
type Session struct {
	Action    calendar.Action    `json:"action"`
	Existing  *models.Workout    `json:"existing,omitempty"`
	Draft     *session.Draft     `json:"-"`
	Exercises []models.Exercise  `json:"exercises,omitempty"`
	Hints     [][][]history.Hint `json:"hints,omitempty"`
	Previous  *models.Workout    `json:"previous,omitempty"`
}

// Today returns the current calendar day in the service's zone.
func (s *Service) Today() civil.Date {
	return calendar.Today(s.now(), s.loc)
}

// Templates returns the catalog in file order.
func (s *Service) Templates() []Template {
	out := make([]Template, 0, s.catalog.Len())
	for _, sum := range s.catalog.Summaries() {
		ps, _ := s.catalog.Get(sum.Name)
		out = append(out, Template{Summary: sum, Exercises: ps})
	}
	return out
}

// Start opens the workout for date. A day that already has a saved workout
// returns it read-only; any other day gets a fresh draft of the template.
// Failing to read history only costs the hints.
func (s *Service) Start(ctx context.Context, templateName string, date civil.Date) (*Session, error) {
	records, err := s.store.FindAllWorkouts(ctx)
	if err != nil {
		s.log.Warn("workout history unavailable", "date", date, "error", err)
		records = nil
	}

	ix := calendar.NewIndex(records)
	action := ix.Click(date)
	if action.Kind == calendar.OpenExisting {
		existing, err := s.decodeOn(records, date)
		if err != nil {
			return nil, err
		}
		return &Session{Action: action, Existing: existing}, nil
	}

	prescriptions, ok := s.catalog.Get(templateName)
	if !ok {
		return nil, fmt.Errorf("template %q: %w", templateName, models.ErrUnknownTemplate)
	}
	draft, err := session.NewDraft(date, templateName, prescriptions)
	if err != nil {
		return nil, err
	}

	prev, err := history.Resolve(records, templateName, date)
	if err != nil {
		s.log.Warn("previous session unreadable", "template", templateName, "date", date, "error", err)
		prev = nil
	}

	sess := &Session{
		Action:    action,
		Draft:     draft,
		Exercises: draft.Exercises(),
	}
	sess.Hints = prev.Hints(sess.Exercises)
	if w, ok := prev.Workout(); ok {
		sess.Previous = &w
		s.log.Debug("previous session found", "template", templateName, "date", date, "previous", prev.Date())
	}

	s.mu.Lock()
	s.drafts[date] = draft
	s.mu.Unlock()
	return sess, nil
}

// OpenDraft returns the draft Start opened for date.
func (s *Service) OpenDraft(date civil.Date) (*session.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[date]
	if !ok {
		return nil, fmt.Errorf("session for %s: %w", date, models.ErrNoDraft)
	}
	return d, nil
}

// SetReps records one cell of the open draft for date and returns the value
// now stored there.
func (s *Service) SetReps(date civil.Date, ex, w, set, reps int) (int, error) {
	d, err := s.OpenDraft(date)
	if err != nil {
		return 0, err
	}
	if err := d.SetReps(ex, w, set, reps); err != nil {
		return 0, fmt.Errorf("session for %s: %w", date, err)
	}
	return d.Reps(ex, w, set), nil
}

// Reshape changes the weights and set count of one exercise in the open
// draft for date and returns the draft's exercises.
func (s *Service) Reshape(date civil.Date, ex int, weights []float64, sets int) ([]models.Exercise, error) {
	d, err := s.OpenDraft(date)
	if err != nil {
		return nil, err
	}
	if err := d.Reshape(ex, weights, sets); err != nil {
		return nil, fmt.Errorf("session for %s: %w", date, err)
	}
	return d.Exercises(), nil
}

// SaveDraft saves the open draft for date through Save and closes it. A
// draft that fails to save stays open.
func (s *Service) SaveDraft(ctx context.Context, date civil.Date) (*models.Workout, error) {
	d, err := s.OpenDraft(date)
	if err != nil {
		return nil, err
	}
	w, err := s.Save(ctx, d)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.drafts[date] == d {
		delete(s.drafts, date)
	}
	s.mu.Unlock()
	return w, nil
}

// Save persists a draft. A draft without any recorded reps is refused before
// storage is touched. A second save for the same day fails with
// models.ErrDuplicateDate and is not retried.
func (s *Service) Save(ctx context.Context, d *session.Draft) (*models.Workout, error) {
	if !d.CanSave() {
		return nil, fmt.Errorf("saving workout for %s: %w", d.Date(), models.ErrIncomplete)
	}
	exercises, err := codec.EncodeExercises(d.Exercises())
	if err != nil {
		return nil, fmt.Errorf("encoding workout for %s: %w", d.Date(), err)
	}

	rec, err := s.store.CreateWorkout(ctx, models.NewWorkout{
		Date:         d.Date(),
		TemplateName: d.TemplateName(),
		Exercises:    exercises,
	})
	if err != nil {
		return nil, fmt.Errorf("saving workout for %s: %w", d.Date(), err)
	}

	w, err := codec.DecodeWorkout(*rec)
	if err != nil {
		return nil, err
	}
	s.log.Info("workout saved", "date", w.Date, "template", w.TemplateName, "id", w.ID)
	return &w, nil
}

// Get returns the workout saved on date.
func (s *Service) Get(ctx context.Context, date civil.Date) (*models.Workout, error) {
	rec, err := s.store.FindWorkoutByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	w, err := codec.DecodeWorkout(*rec)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// List returns every workout, newest first. Records that fail to decode are
// logged and skipped.
func (s *Service) List(ctx context.Context) ([]models.Workout, error) {
	records, err := s.store.FindAllWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Workout, 0, len(records))
	for _, rec := range records {
		w, err := codec.DecodeWorkout(rec)
		if err != nil {
			s.log.Warn("skipping unreadable workout", "id", rec.ID, "date", rec.Date, "error", err)
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Previous returns the most recent workout of the template strictly before
// date, or nil when there is none. An unreadable previous workout is logged
// and reported as none.
func (s *Service) Previous(ctx context.Context, templateName string, date civil.Date) (*models.Workout, error) {
	records, err := s.store.FindAllWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := history.Resolve(records, templateName, date)
	if errors.Is(err, models.ErrCorruptRecord) {
		s.log.Warn("previous session unreadable", "template", templateName, "date", date, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if w, ok := prev.Workout(); ok {
		return &w, nil
	}
	return nil, nil
}

// Index builds the calendar index from storage. An unreachable store yields
// an empty index so the calendar still renders.
func (s *Service) Index(ctx context.Context) *calendar.Index {
	records, err := s.store.FindAllWorkouts(ctx)
	if err != nil {
		s.log.Warn("calendar without workout marks", "error", err)
		return calendar.NewIndex(nil)
	}
	return calendar.NewIndex(records)
}

// Calendar lays out month m.
func (s *Service) Calendar(ctx context.Context, m calendar.Month) (calendar.MonthView, error) {
	if !m.Valid() {
		return calendar.MonthView{}, fmt.Errorf("month %d out of range", m.Month)
	}
	return s.Index(ctx).Month(m, s.Today()), nil
}

// QuickAdd resolves the "new workout for today" shortcut.
func (s *Service) QuickAdd(ctx context.Context) calendar.Action {
	return s.Index(ctx).QuickAdd(s.Today())
}

// Ping reports whether storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) decodeOn(records []models.WorkoutRecord, date civil.Date) (*models.Workout, error) {
	for _, rec := range records {
		if rec.Date != date {
			continue
		}
		w, err := codec.DecodeWorkout(rec)
		if err != nil {
			return nil, err
		}
		return &w, nil
	}
	return nil, fmt.Errorf("workout for %s: %w", date, models.ErrNotFound)
}
