package plan

import (
	"errors"
	"testing"
	"time"
)

func TestWalk(t *testing.T) {
	cases := []struct {
		start    string
		duration int
		numbered []string
		rest     []string
	}{
		{
			start:    "2025-03-04", // Tuesday
			duration: 3,
			numbered: []string{"2025-03-04", "2025-03-05", "2025-03-06"},
		},
		{
			start:    "2025-03-08", // Saturday
			duration: 2,
			numbered: []string{"2025-03-08", "2025-03-10"},
			rest:     []string{"2025-03-09"},
		},
		{
			start:    "2025-03-09", // Sunday
			duration: 1,
			numbered: []string{"2025-03-10"},
			rest:     []string{"2025-03-09"},
		},
		{
			start:    "2025-03-03",
			duration: 0,
		},
	}

	for _, c := range cases {
		var numbered, rest []string
		err := Walk(mustDate(t, c.start), c.duration, func(n int, d time.Time) error {
			if n == 0 {
				rest = append(rest, FormatDate(d))
				return nil
			}
			if n != len(numbered)+1 {
				t.Fatalf("%s: out of order day %d", c.start, n)
			}
			numbered = append(numbered, FormatDate(d))
			return nil
		})
		if err != nil {
			t.Fatalf("%s: %v", c.start, err)
		}
		if len(numbered) != len(c.numbered) || len(rest) != len(c.rest) {
			t.Fatalf("%s: expected %v/%v, got %v/%v", c.start, c.numbered, c.rest, numbered, rest)
		}
		for i := range numbered {
			if numbered[i] != c.numbered[i] {
				t.Fatalf("%s: expected %v, got %v", c.start, c.numbered, numbered)
			}
		}
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Walk(mustDate(t, "2025-03-03"), 7, func(n int, _ time.Time) error {
		calls++
		if n == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 2 {
		t.Fatalf("expected stop after 2 calls, got %v after %d", err, calls)
	}
}

func TestParseTimeSlot(t *testing.T) {
	cases := []struct {
		label string
		start string
		end   string
		ok    bool
	}{
		{"09:00-10:00", "09:00", "10:00", true},
		{" 14:00-15:30 ", "14:00", "15:30", true},
		{"10:00-09:00", "", "", false},
		{"10:00", "", "", false},
		{"9am-10am", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		start, end, err := ParseTimeSlot(c.label)
		if c.ok != (err == nil) {
			t.Fatalf("%q: expected ok=%v, got %v", c.label, c.ok, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidTimeSlot) {
			t.Fatalf("%q: expected ErrInvalidTimeSlot, got %v", c.label, err)
		}
		if start != c.start || end != c.end {
			t.Fatalf("%q: expected %s-%s, got %s-%s", c.label, c.start, c.end, start, end)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"Monday": time.Monday,
		"tue":    time.Tuesday,
		"SUNDAY": time.Sunday,
	} {
		got, ok := ParseWeekday(in)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", in, want, got, ok)
		}
	}
	if _, ok := ParseWeekday("funday"); ok {
		t.Fatal("expected funday to be rejected")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-02-30"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	d, err := ParseDate("2025-03-05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Weekday() != time.Wednesday {
		t.Fatalf("expected Wednesday, got %s", d.Weekday())
	}
}
