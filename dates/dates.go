package dates

import (
	"fmt"
	"time"
)

// ISO is the date layout used across all payment sources and audit tables.
const ISO = "2006-01-02"

// Today returns the current date string in the given timezone. It is meant
// to be called exactly once at process start; the result is threaded through
// entry points rather than read from ambient state.
func Today(tz string) (string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return time.Now().In(loc).Format(ISO), nil
}

// AddDays shifts an ISO date string by n days.
func AddDays(date string, n int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(ISO), nil
}

// Parse parses an ISO date string.
func Parse(date string) (time.Time, error) {
	t, err := time.Parse(ISO, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}
