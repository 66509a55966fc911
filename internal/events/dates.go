package events

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for bucketing.
const DateLayout = "2006-01-02"

// FormatDate returns t's calendar date in t's location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// HourOfDay returns t's hour (0-23) in t's location.
func HourOfDay(t time.Time) int {
	return t.Hour()
}

// Today returns the clock's current calendar date.
func Today(c Clock) string {
	return FormatDate(c.Now())
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween counts calendar days from a to b, each taken in its own location.
// Time of day is ignored and DST transitions do not skew the count.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// StartOfWeek returns the Sunday that begins date's week.
func StartOfWeek(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -int(t.Weekday())).Format(DateLayout)
}
