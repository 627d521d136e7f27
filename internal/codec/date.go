package codec

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// NormalizeDate reduces a workout date to its calendar day.
//
// Strings keep the YYYY-MM-DD they were written with; RFC 3339 timestamps
// are not shifted to another zone first, so "2024-03-05T00:00:00-08:00" is
// March 5 everywhere. A time.Time is read in its own location.
func NormalizeDate(v any) (civil.Date, error) {
	switch x := v.(type) {
	case civil.Date:
		if !x.IsValid() {
			return civil.Date{}, fmt.Errorf("invalid date %s", x)
		}
		return x, nil
	case time.Time:
		if x.IsZero() {
			return civil.Date{}, fmt.Errorf("zero time")
		}
		return civil.DateOf(x), nil
	case *time.Time:
		if x == nil {
			return civil.Date{}, fmt.Errorf("nil time")
		}
		return NormalizeDate(*x)
	case string:
		return parseDay(x)
	default:
		return civil.Date{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDay(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] != 'T' && s[10] != ' ' {
		return civil.Date{}, fmt.Errorf("invalid date %q", s)
	}
	if len(s) > 10 {
		if _, err := time.Parse(time.RFC3339Nano, strings.Replace(s, " ", "T", 1)); err != nil {
			if _, err := time.Parse("2006-01-02T15:04:05", strings.Replace(s, " ", "T", 1)); err != nil {
				return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
			}
		}
		s = s[:10]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
