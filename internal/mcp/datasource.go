package mcp

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/calendar"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/tracker"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process
// tracker) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListTemplates(ctx context.Context) ([]tracker.Template, error)
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	GetWorkout(ctx context.Context, date civil.Date) (*models.Workout, error)
	PreviousWorkout(ctx context.Context, template string, date civil.Date) (*models.Workout, error)
	CalendarMonth(ctx context.Context, m calendar.Month) (*calendar.MonthView, error)
	Today(ctx context.Context) (civil.Date, error)
}

// Local serves MCP tools straight from a tracker.Service.
type Local struct {
	svc *tracker.Service
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal wraps svc.
func NewLocal(svc *tracker.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) ListTemplates(context.Context) ([]tracker.Template, error) {
	return l.svc.Templates(), nil
}

func (l *Local) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	return l.svc.List(ctx)
}

func (l *Local) GetWorkout(ctx context.Context, date civil.Date) (*models.Workout, error) {
	return l.svc.Get(ctx, date)
}

func (l *Local) PreviousWorkout(ctx context.Context, template string, date civil.Date) (*models.Workout, error) {
	return l.svc.Previous(ctx, template, date)
}

func (l *Local) CalendarMonth(ctx context.Context, m calendar.Month) (*calendar.MonthView, error) {
	v, err := l.svc.Calendar(ctx, m)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (l *Local) Today(context.Context) (civil.Date, error) {
	return l.svc.Today(), nil
}
