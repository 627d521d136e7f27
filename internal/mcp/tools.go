package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/calendar"
	"github.com/claude/liftlog/internal/codec"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultListLimit caps list_workouts when no limit is given.
const defaultListLimit = 20

// exerciseView is an exercise with weights rendered as labels ("135lbs", "BW").
type exerciseView struct {
	Name      string   `json:"name"`
	Sets      int      `json:"sets"`
	Weights   []string `json:"weights"`
	Reps      [][]int  `json:"reps,omitempty"`
	TotalReps int      `json:"total_reps,omitempty"`
}

type workoutView struct {
	Date         civil.Date     `json:"date"`
	DisplayDate  string         `json:"display_date"`
	TemplateName string         `json:"template_name"`
	Exercises    []exerciseView `json:"exercises"`
}

type templateView struct {
	Name      string         `json:"name"`
	Exercises []exerciseView `json:"exercises"`
}

func weightLabels(weights []float64) []string {
	out := make([]string, len(weights))
	for i, w := range weights {
		out[i] = models.FormatWeight(w)
	}
	return out
}

func newWorkoutView(w models.Workout) workoutView {
	v := workoutView{
		Date:         w.Date,
		DisplayDate:  models.FormatDisplayDate(w.Date),
		TemplateName: w.TemplateName,
		Exercises:    make([]exerciseView, 0, len(w.Exercises)),
	}
	for _, e := range w.Exercises {
		v.Exercises = append(v.Exercises, exerciseView{
			Name:      e.Name,
			Sets:      e.Sets,
			Weights:   weightLabels(e.Weights),
			Reps:      e.Reps.ToRows(),
			TotalReps: e.Reps.Total(),
		})
	}
	return v
}

func newTemplateViews(templates []tracker.Template) []templateView {
	out := make([]templateView, 0, len(templates))
	for _, t := range templates {
		v := templateView{Name: t.Name, Exercises: make([]exerciseView, 0, len(t.Exercises))}
		for _, p := range t.Exercises {
			v.Exercises = append(v.Exercises, exerciseView{Name: p.Name, Sets: p.Sets, Weights: weightLabels(p.Weights)})
		}
		out = append(out, v)
	}
	return out
}

// optionalDate parses s, falling back to the data source's today.
func (h *handlers) optionalDate(ctx context.Context, s string) (civil.Date, error) {
	if s == "" {
		return h.ds.Today(ctx)
	}
	return codec.NormalizeDate(s)
}

// --- Tool definitions ---

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List workout templates in their configured order. Each exercise has a set count and one row per weight; weight labels are pounds, 'BW' is bodyweight."),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get the workout saved on a calendar day, with reps per weight and set."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Calendar day (YYYY-MM-DD)")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List saved workouts, newest first, optionally filtered by template and date range."),
	mcp.WithString("template", mcp.Description("Only workouts of this template (exact name)")),
	mcp.WithString("start", mcp.Description("First day to include (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Description("Last day to include (YYYY-MM-DD)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 20.")),
)

var toolGetPreviousSession = mcp.NewTool("get_previous_session",
	mcp.WithDescription("Get the most recent workout of a template strictly before a day: the numbers to beat in the next session."),
	mcp.WithString("template", mcp.Required(), mcp.Description("Template name")),
	mcp.WithString("date", mcp.Description("Day of the upcoming session (YYYY-MM-DD). Defaults to today.")),
)

var toolGetCalendarMonth = mcp.NewTool("get_calendar_month",
	mcp.WithDescription("Lay out a month with the days that have a saved workout."),
	mcp.WithNumber("year", mcp.Description("Year. Defaults to the current year.")),
	mcp.WithNumber("month", mcp.Description("Month 1-12. Defaults to the current month.")),
)

// --- Tool handlers ---

func (h *handlers) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.ListTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(newTemplateViews(templates))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	date, err := codec.NormalizeDate(dateStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	w, err := h.ds.GetWorkout(ctx, date)
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("No workout saved on %s.", models.FormatDisplayDate(date))), nil
	}
	if errors.Is(err, models.ErrCorruptRecord) {
		h.log.Warn("mcp get_workout: unreadable record", "date", date, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("The workout saved on %s is unreadable.", models.FormatDisplayDate(date))), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(newWorkoutView(*w))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var start, end civil.Date
	if s := req.GetString("start", ""); s != "" {
		d, err := codec.NormalizeDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
		}
		start = d
	}
	if s := req.GetString("end", ""); s != "" {
		d, err := codec.NormalizeDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
		end = d
	}
	template := req.GetString("template", "")
	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	views := filterWorkouts(workouts, template, start, end, limit)
	result, err := mcp.NewToolResultJSON(views)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// filterWorkouts keeps workouts matching the template (when set) within
// [start, end] (unbounded when zero), up to limit. Input order is kept.
func filterWorkouts(workouts []models.Workout, template string, start, end civil.Date, limit int) []workoutView {
	out := []workoutView{}
	for _, w := range workouts {
		if len(out) == limit {
			break
		}
		if template != "" && w.TemplateName != template {
			continue
		}
		if start.IsValid() && w.Date.Before(start) {
			continue
		}
		if end.IsValid() && w.Date.After(end) {
			continue
		}
		out = append(out, newWorkoutView(w))
	}
	return out
}

func (h *handlers) getPreviousSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	template, err := req.RequireString("template")
	if err != nil {
		return mcp.NewToolResultError("template parameter is required"), nil
	}
	date, err := h.optionalDate(ctx, req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	prev, err := h.ds.PreviousWorkout(ctx, template, date)
	if err != nil {
		h.log.Error("mcp get_previous_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if prev == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No %s workout before %s.", template, models.FormatDisplayDate(date))), nil
	}

	result, err := mcp.NewToolResultJSON(newWorkoutView(*prev))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCalendarMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	today, err := h.ds.Today(ctx)
	if err != nil {
		h.log.Error("mcp get_calendar_month", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	m := calendar.Month{
		Year:  req.GetInt("year", today.Year),
		Month: time.Month(req.GetInt("month", int(today.Month))),
	}
	if !m.Valid() {
		return mcp.NewToolResultError("month must be between 1 and 12"), nil
	}

	view, err := h.ds.CalendarMonth(ctx, m)
	if err != nil {
		h.log.Error("mcp get_calendar_month", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
