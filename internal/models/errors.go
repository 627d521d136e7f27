package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTemplate marks a prescription without sets or weights.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrUnknownTemplate is returned when no template has the requested name.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrCorruptRecord marks stored weights/reps text that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrDuplicateDate is returned when a workout already exists for the date.
	ErrDuplicateDate = errors.New("workout already exists for this date")
	// ErrNotFound is returned when no workout exists for the date.
	ErrNotFound = errors.New("workout not found")
	// ErrUnavailable wraps storage connectivity failures.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrIncomplete is returned when saving a draft with no recorded reps.
	ErrIncomplete = errors.New("workout has no recorded reps")
	// ErrNoDraft is returned when no session is open for the date.
	ErrNoDraft = errors.New("no open session for this date")
	// ErrInvalidCell marks a draft edit outside the exercise list or rep matrix.
	ErrInvalidCell = errors.New("invalid cell")
)

// CorruptRecordError describes a stored field that failed to decode.
// It matches ErrCorruptRecord with errors.Is.
type CorruptRecordError struct {
	Field string
	Raw   string
	Err   error
}

func (e *CorruptRecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupt %s %q", e.Field, e.Raw)
	}
	return fmt.Sprintf("corrupt %s %q: %v", e.Field, e.Raw, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }

func (e *CorruptRecordError) Is(target error) bool { return target == ErrCorruptRecord }
