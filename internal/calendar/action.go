package calendar

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// ActionKind is what selecting a day leads to.
type ActionKind int

const (
	// StartNew opens a template picker for a day without a workout.
	StartNew ActionKind = iota
	// OpenExisting shows the saved workout read-only.
	OpenExisting
)

func (k ActionKind) String() string {
	switch k {
	case StartNew:
		return "start_new"
	case OpenExisting:
		return "open_existing"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "start_new":
		*k = StartNew
	case "open_existing":
		*k = OpenExisting
	default:
		return fmt.Errorf("unknown action kind %q", text)
	}
	return nil
}

// Action is the outcome of selecting a day.
type Action struct {
	Kind    ActionKind `json:"kind"`
	Date    civil.Date `json:"date"`
	Workout *Entry     `json:"workout,omitempty"`
}

// Click resolves a click on day d.
func (ix *Index) Click(d civil.Date) Action {
	if e, ok := ix.Lookup(d); ok {
		return Action{Kind: OpenExisting, Date: d, Workout: &e}
	}
	return Action{Kind: StartNew, Date: d}
}

// QuickAdd resolves the "new workout for today" shortcut. It goes through
// the same check as Click, so a day that already has a workout opens it
// instead of starting a second draft.
func (ix *Index) QuickAdd(today civil.Date) Action {
	return ix.Click(today)
}
