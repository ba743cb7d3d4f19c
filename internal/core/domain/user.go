package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in CSV files.
const DateLayout = "2006-01-02"

// User is a person record. ID is chosen by the caller, never generated.
type User struct {
	ID          int64
	Firstname   string
	Lastname    string
	Email       string
	Profession  string
	DateCreated time.Time
	Country     string
	City        string
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}

// FormatDate renders t using DateLayout.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
