package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

// Resolver computes a doctor's free slots on a date: the slot catalogue minus
// active reservations. It never writes.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// FreeSlots returns the doctor's free slots in catalogue order. An unknown
// doctor has no availability and yields an empty result, not an error.
func (r *Resolver) FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doctor, err := r.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	return r.freeSlots(ctx, doctor, date, uuid.Nil)
}

// freeSlots treats reservations held by owner as free, so a record moving
// within the same doctor can keep its own slot.
func (r *Resolver) freeSlots(ctx context.Context, doctor *Doctor, date time.Time, owner uuid.UUID) ([]string, error) {
	date = plan.Truncate(date)
	booked, err := r.repo.ListReservations(ctx, doctor.ID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, res := range booked {
		if owner != uuid.Nil && res.OwnerID == owner {
			continue
		}
		taken[res.TimeSlot] = struct{}{}
	}

	free := make([]string, 0, len(doctor.Slots))
	for _, slot := range doctor.Slots {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free, nil
}

// CenterAvailability lists, per active doctor working that weekday, the
// free slots on date. Doctors without a free slot are left out.
func (r *Resolver) CenterAvailability(ctx context.Context, centerID uuid.UUID, date time.Time) ([]DoctorAvailability, error) {
	doctors, err := r.repo.ListActiveDoctors(ctx, centerID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	out := []DoctorAvailability{}
	for i := range doctors {
		d := &doctors[i]
		if !d.WorksOn(date.Weekday()) {
			continue
		}
		free, err := r.freeSlots(ctx, d, date, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if len(free) == 0 {
			continue
		}
		out = append(out, DoctorAvailability{DoctorID: d.ID, DoctorName: d.Name, Slots: free})
	}
	return out, nil
}
