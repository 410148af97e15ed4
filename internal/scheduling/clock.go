package scheduling

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// MiddayCutoff splits the morning turn from the afternoon turn.
	MiddayCutoff = "13:00"
	// EveningCutoff splits the afternoon turn from the night turn on 3-turn days.
	EveningCutoff = "18:00"
)

// ParseClock converts an "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil || len(clock) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a "YYYY-MM-DD" string as a calendar day in UTC so that
// day arithmetic never crosses a DST boundary.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d, nil
}

// Weekday returns the weekday of a "YYYY-MM-DD" date.
func Weekday(date string) (time.Weekday, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return d.Weekday(), nil
}

// calendarDay truncates a wall-clock instant to its calendar day, keeping the
// local date fields.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustClock(clock string) int {
	m, err := ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return m
}

var (
	middayMinutes  = mustClock(MiddayCutoff)
	eveningMinutes = mustClock(EveningCutoff)
)
