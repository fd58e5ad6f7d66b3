package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

// Validator checks that a doctor can take a program's therapy slot on every
// working day of its span.
type Validator struct {
	repo Repository
}

func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo}
}

// Validate walks the span the same way plan.Generate does and stops at the
// first day the doctor does not work (*DoctorUnavailableError) or where the
// slot is already reserved by someone other than owner (*SlotConflictError).
// On success it returns one reservation per working day, ready to bind.
func (v *Validator) Validate(ctx context.Context, span Span, doctor *Doctor, timeSlot string, owner uuid.UUID) ([]Reservation, error) {
	if span.Duration < 1 {
		return nil, fmt.Errorf("%w: duration", ErrMissingField)
	}

	start := plan.Truncate(span.Start)
	end := plan.EndDate(start, span.Duration)
	booked, err := v.repo.ListReservations(ctx, doctor.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, res := range booked {
		if res.TimeSlot != timeSlot || (res.OwnerKind == OwnerProgram && res.OwnerID == owner) {
			continue
		}
		taken[plan.FormatDate(res.Date)] = struct{}{}
	}

	out := make([]Reservation, 0, span.Duration)
	err = plan.Walk(start, span.Duration, func(day int, date time.Time) error {
		if day == 0 {
			return nil
		}
		if !doctor.WorksOn(date.Weekday()) {
			return &DoctorUnavailableError{Day: day, Weekday: plan.WeekdayName(date.Weekday())}
		}
		key := plan.FormatDate(date)
		if _, ok := taken[key]; ok {
			return &SlotConflictError{Date: key, TimeSlot: timeSlot, Day: day}
		}
		out = append(out, Reservation{
			DoctorID:  doctor.ID,
			Date:      date,
			TimeSlot:  timeSlot,
			OwnerKind: OwnerProgram,
			OwnerID:   owner,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
