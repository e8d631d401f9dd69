package domain

import "time"

const (
	// DateLayout is the calendar-day form used at every boundary.
	DateLayout = "2006-01-02"
	// ClockLayout is the wall-clock form used for deadlines.
	ClockLayout = "15:04"
)

// DateOf truncates t to its calendar day at UTC midnight. All scheduling
// arithmetic works on these normalized values; the system treats dates as
// location-local calendar days and never converts timezones.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the whole calendar days from a to b, negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)) / (24 * time.Hour))
}

// ValidClock reports whether s is a well-formed HH:MM wall-clock string.
func ValidClock(s string) bool {
	_, err := time.Parse(ClockLayout, s)
	return err == nil && len(s) == 5
}
