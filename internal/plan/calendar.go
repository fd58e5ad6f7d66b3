package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the boundary format for calendar dates.
const DateLayout = "2006-01-02"

// RestDay is kept on the calendar but never numbered or counted toward a
// program's duration.
const RestDay = time.Sunday

var (
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTimeSlot = errors.New("invalid time slot, expected HH:MM-HH:MM")
)

// ParseDate parses a YYYY-MM-DD string into a date at midnight UTC.
// No timezone conversion is done; all dates share one implicit zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate drops the clock part of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekdayName returns the lower-case English weekday name ("monday").
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseWeekday accepts full or three-letter weekday names, any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := WeekdayName(d)
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, true
		}
	}
	return 0, false
}

// Walk expands a program span of duration working days from start, calling
// fn for every calendar date in order. Working days get numbers 1..duration;
// rest days are reported with number 0. A non-nil error from fn stops the walk.
func Walk(start time.Time, duration int, fn func(number int, date time.Time) error) error {
	date := Truncate(start)
	for n := 0; n < duration; date = date.AddDate(0, 0, 1) {
		number := 0
		if date.Weekday() != RestDay {
			n++
			number = n
		}
		if err := fn(number, date); err != nil {
			return err
		}
	}
	return nil
}

// WorkingDays returns the numbered dates of a span, index i holding day i+1.
func WorkingDays(start time.Time, duration int) []time.Time {
	if duration <= 0 {
		return nil
	}
	days := make([]time.Time, 0, duration)
	_ = Walk(start, duration, func(number int, date time.Time) error {
		if number > 0 {
			days = append(days, date)
		}
		return nil
	})
	return days
}

// EndDate is the date of the last working day of a span.
func EndDate(start time.Time, duration int) time.Time {
	days := WorkingDays(start, duration)
	if len(days) == 0 {
		return Truncate(start)
	}
	return days[len(days)-1]
}

// ParseTimeSlot splits an HH:MM-HH:MM label and checks start < end.
func ParseTimeSlot(label string) (start, end string, err error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	from, errFrom := time.Parse("15:04", parts[0])
	to, errTo := time.Parse("15:04", parts[1])
	if errFrom != nil || errTo != nil || !from.Before(to) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, label)
	}
	return from.Format("15:04"), to.Format("15:04"), nil
}
