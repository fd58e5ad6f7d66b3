package plan

import (
	"errors"
	"fmt"
	"time"
)

// SlotStatus tracks whether a planned activity happened.
type SlotStatus string

const (
	SlotPending   SlotStatus = "pending"
	SlotCompleted SlotStatus = "completed"
	SlotSkipped   SlotStatus = "skipped"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotPending, SlotCompleted, SlotSkipped:
		return true
	}
	return false
}

var (
	ErrDayNotFound       = errors.New("schedule day not found")
	ErrSlotNotFound      = errors.New("schedule slot not found")
	ErrInvalidSlotStatus = errors.New("invalid slot status")
)

// DayNotFoundError reports a day number missing from a schedule.
type DayNotFoundError struct {
	Day int
}

func (e *DayNotFoundError) Error() string {
	return fmt.Sprintf("day %d not found in schedule", e.Day)
}

func (e *DayNotFoundError) Is(target error) bool { return target == ErrDayNotFound }

// SlotNotFoundError reports a slot key missing from a schedule day.
type SlotNotFoundError struct {
	Day  int
	Slot SlotKey
}

func (e *SlotNotFoundError) Error() string {
	return fmt.Sprintf("slot %q not found on day %d", e.Slot, e.Day)
}

func (e *SlotNotFoundError) Is(target error) bool { return target == ErrSlotNotFound }

// SlotEntry is one planned activity. ModifiedBy/ModifiedAt hold only the
// most recent change.
type SlotEntry struct {
	Time       string     `json:"time"`
	Name       string     `json:"name"`
	Activity   string     `json:"activity"`
	Status     SlotStatus `json:"status"`
	Notes      string     `json:"notes"`
	ModifiedBy *string    `json:"modified_by"`
	ModifiedAt *time.Time `json:"modified_at"`
}

type Day struct {
	Number  int                    `json:"day_number"`
	Date    string                 `json:"date"`
	Weekday string                 `json:"weekday"`
	Slots   map[SlotKey]*SlotEntry `json:"slots"`
}

type PlanInfo struct {
	TemplateID  string   `json:"template_id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Duration    int      `json:"duration"`
	Precautions []string `json:"precautions"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	TherapyTime string   `json:"therapy_time"`
}

// Schedule is the materialised day/slot structure of a program. Days holds
// working days in order, Days[i].Number == i+1. RestDates lists the rest days
// that fall inside the span.
type Schedule struct {
	Info      PlanInfo `json:"plan_info"`
	Days      []Day    `json:"daily_schedules"`
	RestDates []string `json:"rest_dates"`
}

// Generate expands a template into a calendar-mapped schedule starting at
// start. The result depends only on its inputs.
func Generate(templateID string, start time.Time, therapyTime string) (*Schedule, error) {
	tpl, err := Lookup(templateID)
	if err != nil {
		return nil, err
	}
	therapyStart, _, err := ParseTimeSlot(therapyTime)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		Info: PlanInfo{
			TemplateID:  tpl.ID,
			Name:        tpl.Name,
			Type:        tpl.Type,
			Duration:    tpl.Duration,
			Precautions: append([]string(nil), tpl.Precautions...),
			StartDate:   FormatDate(start),
			EndDate:     FormatDate(EndDate(start, tpl.Duration)),
			TherapyTime: therapyTime,
		},
		Days:      make([]Day, 0, tpl.Duration),
		RestDates: []string{},
	}

	_ = Walk(start, tpl.Duration, func(number int, date time.Time) error {
		if number == 0 {
			s.RestDates = append(s.RestDates, FormatDate(date))
			return nil
		}
		day := Day{
			Number:  number,
			Date:    FormatDate(date),
			Weekday: WeekdayName(date.Weekday()),
			Slots:   make(map[SlotKey]*SlotEntry, len(Catalogue)),
		}
		activities := tpl.Days[number]
		for _, info := range Catalogue {
			activity, ok := activities[info.Key]
			if !ok {
				continue
			}
			slotTime := info.Time
			if info.Key == SlotTherapy {
				slotTime = therapyStart
			}
			day.Slots[info.Key] = &SlotEntry{
				Time:     slotTime,
				Name:     info.Name,
				Activity: activity,
				Status:   SlotPending,
			}
		}
		s.Days = append(s.Days, day)
		return nil
	})

	return s, nil
}

// Day returns the numbered working day n.
func (s *Schedule) Day(n int) (*Day, error) {
	if n < 1 || n > len(s.Days) || s.Days[n-1].Number != n {
		for i := range s.Days {
			if s.Days[i].Number == n {
				return &s.Days[i], nil
			}
		}
		return nil, &DayNotFoundError{Day: n}
	}
	return &s.Days[n-1], nil
}

// Slot returns the entry stored under key.
func (d *Day) Slot(key SlotKey) (*SlotEntry, error) {
	e, ok := d.Slots[key]
	if !ok || e == nil {
		return nil, &SlotNotFoundError{Day: d.Number, Slot: key}
	}
	return e, nil
}

// Clone returns a deep copy so callers can mutate without touching the
// original.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := &Schedule{
		Info:      s.Info,
		Days:      make([]Day, len(s.Days)),
		RestDates: append([]string(nil), s.RestDates...),
	}
	out.Info.Precautions = append([]string(nil), s.Info.Precautions...)
	for i, d := range s.Days {
		nd := d
		nd.Slots = make(map[SlotKey]*SlotEntry, len(d.Slots))
		for k, e := range d.Slots {
			ce := *e
			if e.ModifiedBy != nil {
				by := *e.ModifiedBy
				ce.ModifiedBy = &by
			}
			if e.ModifiedAt != nil {
				at := *e.ModifiedAt
				ce.ModifiedAt = &at
			}
			nd.Slots[k] = &ce
		}
		out.Days[i] = nd
	}
	return out
}

// SetTherapyTime rebinds the daily therapy time on the plan and on every
// therapy slot. Audit fields are left alone.
func (s *Schedule) SetTherapyTime(label string) error {
	start, _, err := ParseTimeSlot(label)
	if err != nil {
		return err
	}
	s.Info.TherapyTime = label
	for i := range s.Days {
		if e, ok := s.Days[i].Slots[SlotTherapy]; ok {
			e.Time = start
		}
	}
	return nil
}

// SetActivity replaces the planned activity of one slot.
func (s *Schedule) SetActivity(day int, slot SlotKey, activity, actor string, at time.Time) error {
	return s.mutate(day, slot, actor, at, func(e *SlotEntry) { e.Activity = activity })
}

// SetNotes replaces the free-text notes of one slot.
func (s *Schedule) SetNotes(day int, slot SlotKey, notes, actor string, at time.Time) error {
	return s.mutate(day, slot, actor, at, func(e *SlotEntry) { e.Notes = notes })
}

// SetStatus marks one slot pending, completed or skipped.
func (s *Schedule) SetStatus(day int, slot SlotKey, status SlotStatus, actor string, at time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSlotStatus, status)
	}
	return s.mutate(day, slot, actor, at, func(e *SlotEntry) { e.Status = status })
}

func (s *Schedule) mutate(day int, slot SlotKey, actor string, at time.Time, fn func(*SlotEntry)) error {
	d, err := s.Day(day)
	if err != nil {
		return err
	}
	e, err := d.Slot(slot)
	if err != nil {
		return err
	}
	fn(e)
	by := actor
	when := at
	e.ModifiedBy = &by
	e.ModifiedAt = &when
	return nil
}
