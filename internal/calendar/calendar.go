// Package calendar marks which days of a month have a saved workout and
// decides what a click on a day does.
package calendar

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Entry is the saved workout on one day.
type Entry struct {
	WorkoutID    uuid.UUID  `json:"workout_id"`
	Date         civil.Date `json:"date"`
	TemplateName string     `json:"template_name"`
}

// Index maps calendar days to saved workouts. It is built once from the
// workouts fetched from storage and is read-only afterwards; moving between
// months never goes back to storage.
type Index struct {
	byDate map[civil.Date]Entry
}

// NewIndex builds an index. Record dates are already calendar days, so no
// zone conversion happens here.
func NewIndex(records []models.WorkoutRecord) *Index {
	ix := &Index{byDate: make(map[civil.Date]Entry, len(records))}
	for _, r := range records {
		ix.byDate[r.Date] = Entry{WorkoutID: r.ID, Date: r.Date, TemplateName: r.TemplateName}
	}
	return ix
}

// Lookup returns the workout saved on d.
func (ix *Index) Lookup(d civil.Date) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	e, ok := ix.byDate[d]
	return e, ok
}

// Month identifies a displayed month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the month containing d.
func MonthOf(d civil.Date) Month { return Month{Year: d.Year, Month: d.Month} }

// Valid reports whether the month number is 1..12.
func (m Month) Valid() bool { return m.Month >= time.January && m.Month <= time.December }

// First returns day 1 of the month.
func (m Month) First() civil.Date { return civil.Date{Year: m.Year, Month: m.Month, Day: 1} }

// Days returns the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LeadingBlanks returns the weekday of day 1 with Sunday as 0: the number of
// empty cells before it in a Sunday-first grid.
func (m Month) LeadingBlanks() int {
	return int(m.First().In(time.UTC).Weekday())
}

// Next returns the following month.
func (m Month) Next() Month { return m.add(1) }

// Prev returns the preceding month.
func (m Month) Prev() Month { return m.add(-1) }

func (m Month) add(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Day is one cell of a month view.
type Day struct {
	Number     int        `json:"day"`
	Date       civil.Date `json:"date"`
	HasWorkout bool       `json:"has_workout"`
	IsToday    bool       `json:"is_today"`
	Workout    *Entry     `json:"workout,omitempty"`
}

// MonthView is a month laid out for display.
type MonthView struct {
	Month
	LeadingBlanks int   `json:"leading_blanks"`
	Days          []Day `json:"days"`
	Prev          Month `json:"prev"`
	Next          Month `json:"next"`
}

// Month lays out m. today is the viewer's current calendar day.
func (ix *Index) Month(m Month, today civil.Date) MonthView {
	v := MonthView{
		Month:         m,
		LeadingBlanks: m.LeadingBlanks(),
		Days:          make([]Day, 0, m.Days()),
		Prev:          m.Prev(),
		Next:          m.Next(),
	}
	for n := 1; n <= m.Days(); n++ {
		d := civil.Date{Year: m.Year, Month: m.Month, Day: n}
		day := Day{Number: n, Date: d, IsToday: d == today}
		if e, ok := ix.Lookup(d); ok {
			day.HasWorkout = true
			day.Workout = &e
		}
		v.Days = append(v.Days, day)
	}
	return v
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now.In(loc))
}
