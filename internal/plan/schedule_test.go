package plan

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestGenerate_SevenDaysFromMonday(t *testing.T) {
	// 2025-03-03 is a Monday; the span crosses Sunday 2025-03-09.
	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(s.Days) != 7 {
		t.Fatalf("expected 7 numbered days, got %d", len(s.Days))
	}
	if !reflect.DeepEqual(s.RestDates, []string{"2025-03-09"}) {
		t.Fatalf("unexpected rest dates %v", s.RestDates)
	}
	if s.Days[0].Date != "2025-03-03" || s.Days[6].Date != "2025-03-10" {
		t.Fatalf("unexpected span %s..%s", s.Days[0].Date, s.Days[6].Date)
	}
	if s.Info.EndDate != "2025-03-10" {
		t.Fatalf("expected end date 2025-03-10, got %s", s.Info.EndDate)
	}

	calendar := len(s.Days) + len(s.RestDates)
	if calendar != 8 {
		t.Fatalf("expected 8 calendar dates, got %d", calendar)
	}
}

func TestGenerate_NoRestDayInsideSpan(t *testing.T) {
	// Monday to Saturday, six working days, no Sunday inside.
	days := WorkingDays(mustDate(t, "2025-03-03"), 6)
	if len(days) != 6 {
		t.Fatalf("expected 6 days, got %d", len(days))
	}
	if got := FormatDate(days[5]); got != "2025-03-08" {
		t.Fatalf("expected last day 2025-03-08, got %s", got)
	}
}

func TestGenerate_RestDayNeverNumbered(t *testing.T) {
	for _, tpl := range Templates() {
		for offset := 0; offset < 7; offset++ {
			start := mustDate(t, "2025-03-02").AddDate(0, 0, offset)
			s, err := Generate(tpl.ID, start, "10:00-11:00")
			if err != nil {
				t.Fatalf("%s: %v", tpl.ID, err)
			}
			if len(s.Days) != tpl.Duration {
				t.Fatalf("%s: expected %d days, got %d", tpl.ID, tpl.Duration, len(s.Days))
			}
			for i, d := range s.Days {
				if d.Number != i+1 {
					t.Fatalf("%s: day %d numbered %d", tpl.ID, i+1, d.Number)
				}
				if d.Weekday == WeekdayName(RestDay) {
					t.Fatalf("%s: rest day numbered as day %d", tpl.ID, d.Number)
				}
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	start := mustDate(t, "2025-04-17")
	a, err := Generate("diabetes_full", start, "15:00-16:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Generate("diabetes_full", start, "15:00-16:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical schedules for identical inputs")
	}
}

func TestGenerate_SlotsFromCatalogue(t *testing.T) {
	s, err := Generate("diabetes_full", mustDate(t, "2025-03-03"), "15:00-16:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	day3, err := s.Day(3)
	if err != nil {
		t.Fatalf("day 3: %v", err)
	}
	breakfast, err := day3.Slot(SlotBreakfast)
	if err != nil {
		t.Fatalf("breakfast: %v", err)
	}
	if breakfast.Activity != "Vegetable soup (liquid)" || breakfast.Time != "09:00" {
		t.Fatalf("unexpected breakfast entry %+v", breakfast)
	}
	if breakfast.Status != SlotPending || breakfast.ModifiedBy != nil || breakfast.ModifiedAt != nil {
		t.Fatalf("expected fresh entry, got %+v", breakfast)
	}

	therapy, _ := day3.Slot(SlotTherapy)
	if therapy.Time != "15:00" {
		t.Fatalf("expected therapy at caller time 15:00, got %s", therapy.Time)
	}
	if len(s.Info.Precautions) != 10 {
		t.Fatalf("expected general + diabetes precautions, got %d", len(s.Info.Precautions))
	}
}

func TestGenerate_Errors(t *testing.T) {
	start := mustDate(t, "2025-03-03")
	if _, err := Generate("juice_cleanse", start, "10:00-11:00"); !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}
	if _, err := Generate("weight_loss_short", start, "25:00"); !errors.Is(err, ErrInvalidTimeSlot) {
		t.Fatalf("expected ErrInvalidTimeSlot, got %v", err)
	}
}

func TestSchedule_SetActivityMissingDay(t *testing.T) {
	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	before := s.Clone()

	err = s.SetActivity(99, SlotLunch, "Fasting", "doctor-1", time.Now())
	var dayErr *DayNotFoundError
	if !errors.As(err, &dayErr) || dayErr.Day != 99 {
		t.Fatalf("expected DayNotFoundError for day 99, got %v", err)
	}
	if !errors.Is(err, ErrDayNotFound) {
		t.Fatal("expected error to match ErrDayNotFound")
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("schedule changed after failed mutation")
	}

	err = s.SetNotes(2, SlotKey("brunch"), "n/a", "doctor-1", time.Now())
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("schedule changed after failed mutation")
	}
}

func TestSchedule_MutationOverwritesAudit(t *testing.T) {
	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	first := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	if err := s.SetActivity(2, SlotLunch, "Clear broth", "dr-a", first); err != nil {
		t.Fatalf("set activity: %v", err)
	}
	if err := s.SetNotes(2, SlotLunch, "tolerated well", "dr-b", second); err != nil {
		t.Fatalf("set notes: %v", err)
	}

	day, _ := s.Day(2)
	entry, _ := day.Slot(SlotLunch)
	if entry.Activity != "Clear broth" || entry.Notes != "tolerated well" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if *entry.ModifiedBy != "dr-b" || !entry.ModifiedAt.Equal(second) {
		t.Fatalf("expected audit dr-b@%s, got %s@%s", second, *entry.ModifiedBy, entry.ModifiedAt)
	}

	other, _ := day.Slot(SlotDinner)
	if other.ModifiedBy != nil {
		t.Fatal("untouched slot should keep empty audit")
	}

	if err := s.SetStatus(2, SlotLunch, SlotStatus("maybe"), "dr-b", second); !errors.Is(err, ErrInvalidSlotStatus) {
		t.Fatalf("expected ErrInvalidSlotStatus, got %v", err)
	}
}

func TestSchedule_CloneIsDeep(t *testing.T) {
	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c := s.Clone()
	if err := c.SetActivity(1, SlotMorning, "Hot water", "dr", time.Now()); err != nil {
		t.Fatalf("set activity: %v", err)
	}
	orig, _ := s.Days[0].Slot(SlotMorning)
	if orig.Activity == "Hot water" || orig.ModifiedBy != nil {
		t.Fatal("mutating clone leaked into original")
	}
}

func TestSchedule_SetTherapyTime(t *testing.T) {
	s, err := Generate("weight_loss_short", mustDate(t, "2025-03-03"), "10:00-11:00")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := s.SetTherapyTime("16:00-17:00"); err != nil {
		t.Fatalf("set therapy time: %v", err)
	}
	if s.Info.TherapyTime != "16:00-17:00" {
		t.Fatalf("unexpected therapy time %s", s.Info.TherapyTime)
	}
	for _, d := range s.Days {
		if d.Slots[SlotTherapy].Time != "16:00" {
			t.Fatalf("day %d therapy time %s", d.Number, d.Slots[SlotTherapy].Time)
		}
	}
}
