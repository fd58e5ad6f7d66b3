package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

// SlotUpdate edits one slot of a program schedule. Nil fields are left as
// they are; at least one must be set.
type SlotUpdate struct {
	ProgramID uuid.UUID
	Day       int
	Slot      plan.SlotKey
	Activity  *string
	Notes     *string
	Status    *plan.SlotStatus
	Actor     uuid.UUID
}

// UpdateProgramSlot applies a doctor's edit to one day/slot. The edit is made
// on a copy and written only if the program has not changed since it was
// read, so a failed lookup or a concurrent edit leaves the stored schedule
// untouched.
func (s *Service) UpdateProgramSlot(ctx context.Context, upd SlotUpdate) (*Program, error) {
	if upd.Activity == nil && upd.Notes == nil && upd.Status == nil {
		return nil, ErrNothingToUpdate
	}

	prog, err := s.loadProgram(ctx, upd.ProgramID)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(prog.DoctorID, upd.Actor); err != nil {
		return nil, err
	}

	schedule := prog.Schedule.Clone()
	actor := upd.Actor.String()
	at := s.now()

	if upd.Activity != nil {
		if err := schedule.SetActivity(upd.Day, upd.Slot, *upd.Activity, actor, at); err != nil {
			return nil, err
		}
	}
	if upd.Notes != nil {
		if err := schedule.SetNotes(upd.Day, upd.Slot, *upd.Notes, actor, at); err != nil {
			return nil, err
		}
	}
	if upd.Status != nil {
		if err := schedule.SetStatus(upd.Day, upd.Slot, *upd.Status, actor, at); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateProgramSchedule(ctx, prog.ID, prog.UpdatedAt, schedule)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}

	payload := map[string]any{
		"day":   upd.Day,
		"slot":  string(upd.Slot),
		"actor": actor,
	}
	if upd.Status != nil {
		payload["status"] = string(*upd.Status)
	}
	s.logEvent(ctx, OwnerProgram, prog.ID, EventProgramSlotUpdated, payload)

	return updated, nil
}
