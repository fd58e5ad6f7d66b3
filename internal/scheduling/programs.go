package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

type ProgramRequest struct {
	PatientID  uuid.UUID
	CenterID   uuid.UUID
	TemplateID string
	StartDate  time.Time
}

// CreateProgram materialises the plan schedule for a detox program. Doctor
// and therapy time are bound later, on approval.
func (s *Service) CreateProgram(ctx context.Context, req ProgramRequest) (*Program, error) {
	if req.TemplateID == "" {
		return nil, fmt.Errorf("%w: template_id", ErrMissingField)
	}
	if req.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date", ErrMissingField)
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.approvedCenter(ctx, req.CenterID); err != nil {
		return nil, err
	}

	start := plan.Truncate(req.StartDate)
	schedule, err := plan.Generate(req.TemplateID, start, s.cfg.DefaultTherapyTime)
	if err != nil {
		return nil, err
	}

	prog := &Program{
		ID:          uuid.New(),
		PatientID:   req.PatientID,
		CenterID:    req.CenterID,
		TemplateID:  schedule.Info.TemplateID,
		StartDate:   start,
		Duration:    schedule.Info.Duration,
		TherapyTime: schedule.Info.TherapyTime,
		Status:      StatusPendingApproval,
		Schedule:    *schedule,
	}
	if err := s.repo.CreateProgram(ctx, prog); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	s.logEvent(ctx, OwnerProgram, prog.ID, EventProgramCreated, map[string]any{
		"patient_id":  prog.PatientID.String(),
		"center_id":   prog.CenterID.String(),
		"template_id": prog.TemplateID,
		"start_date":  plan.FormatDate(prog.StartDate),
		"duration":    prog.Duration,
	})
	p := s.partiesForNotify(ctx, prog.PatientID, prog.CenterID, nil)
	s.send(ctx, programRequestedMessages(prog, p)...)

	return prog, nil
}

// ApproveProgram binds doctorID at timeSlot to every working day of a
// pending program and confirms it. Either every day is reserved or none is.
func (s *Service) ApproveProgram(ctx context.Context, id, doctorID uuid.UUID, timeSlot string) (*Program, error) {
	if _, _, err := plan.ParseTimeSlot(timeSlot); err != nil {
		return nil, err
	}
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(prog.Status, StatusConfirmed); err != nil {
		return nil, err
	}

	updated, err := s.bindProgram(ctx, prog, doctorID, timeSlot)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, OwnerProgram, id, EventProgramConfirmed, map[string]any{
		"doctor_id":    doctorID.String(),
		"therapy_time": timeSlot,
		"reserved":     updated.Duration,
	})
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx, programConfirmedMessage(updated, p))

	return updated, nil
}

// ReassignProgram changes the doctor or therapy time of a program that has
// not started. A pending program is approved with the new binding.
func (s *Service) ReassignProgram(ctx context.Context, id, doctorID uuid.UUID, timeSlot string) (*Program, error) {
	if _, _, err := plan.ParseTimeSlot(timeSlot); err != nil {
		return nil, err
	}
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	switch prog.Status {
	case StatusPendingApproval:
		return s.ApproveProgram(ctx, id, doctorID, timeSlot)
	case StatusConfirmed:
	default:
		return nil, &InvalidTransitionError{From: prog.Status, To: StatusConfirmed}
	}

	updated, err := s.bindProgram(ctx, prog, doctorID, timeSlot)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"doctor_id":             doctorID.String(),
		"therapy_time":          timeSlot,
		"previous_therapy_time": prog.TherapyTime,
	}
	if prog.DoctorID != nil {
		payload["previous_doctor_id"] = prog.DoctorID.String()
	}
	s.logEvent(ctx, OwnerProgram, id, EventProgramReassigned, payload)

	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx, doctorAssignedMessage(notify.KindProgram, EventProgramReassigned, id.String(), p))

	return updated, nil
}

// bindProgram validates and reserves the span under the doctor lock, then
// writes doctor, therapy time, schedule and status in one update. Reservations
// the program already holds do not count as conflicts and are swapped out.
func (s *Service) bindProgram(ctx context.Context, prog *Program, doctorID uuid.UUID, timeSlot string) (*Program, error) {
	doctor, err := s.bookableDoctor(ctx, doctorID, prog.CenterID)
	if err != nil {
		return nil, err
	}
	if !doctor.Offers(timeSlot) {
		return nil, ErrSlotNotOffered
	}

	schedule := prog.Schedule.Clone()
	if err := schedule.SetTherapyTime(timeSlot); err != nil {
		return nil, err
	}

	var updated *Program
	err = s.withDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		reservations, err := s.validator.Validate(lockCtx, prog.Span(), doctor, timeSlot, prog.ID)
		if err != nil {
			return err
		}

		upd := ProgramUpdate{
			DoctorID:    &doctorID,
			TherapyTime: &timeSlot,
			Schedule:    schedule,
			Reserve:     reservations,
		}
		u, err := s.repo.UpdateProgram(lockCtx, prog.ID, prog.Status, StatusConfirmed, upd)
		if err != nil {
			var conflict *SlotConflictError
			if errors.As(err, &conflict) {
				conflict.Day = dayOf(reservations, conflict.Date)
				return conflict
			}
			return fmt.Errorf("bind program: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// dayOf maps a reserved date back to its program day number.
func dayOf(reservations []Reservation, date string) int {
	for i, r := range reservations {
		if plan.FormatDate(r.Date) == date {
			return i + 1
		}
	}
	return 0
}

// RejectProgram rejects a pending program.
func (s *Service) RejectProgram(ctx context.Context, id uuid.UUID, reason string) (*Program, error) {
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(prog.Status, StatusRejected); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProgram(ctx, id, prog.Status, StatusRejected, ProgramUpdate{Release: true})
	if err != nil {
		return nil, fmt.Errorf("reject program: %w", err)
	}

	s.logEvent(ctx, OwnerProgram, id, EventProgramRejected, map[string]any{"reason": reason})
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, nil)
	s.send(ctx, programRejectedMessage(updated, p))

	return updated, nil
}

func (s *Service) StartProgram(ctx context.Context, id, actor uuid.UUID) (*Program, error) {
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(prog.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := Transition(prog.Status, StatusInProgress); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProgram(ctx, id, prog.Status, StatusInProgress, ProgramUpdate{})
	if err != nil {
		return nil, fmt.Errorf("start program: %w", err)
	}
	s.logEvent(ctx, OwnerProgram, id, EventProgramStarted, map[string]any{"actor": actor.String()})
	return updated, nil
}

// CompleteProgram closes an in-progress program and sends the patient a
// summary built from the recorded progress.
func (s *Service) CompleteProgram(ctx context.Context, id, actor uuid.UUID, report *TherapyReport) (*Program, error) {
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(prog.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := Transition(prog.Status, StatusCompleted); err != nil {
		return nil, err
	}

	upd := ProgramUpdate{}
	if report != nil {
		r := *report
		r.CompletedAt = s.now()
		upd.Report = &r
	}

	updated, err := s.repo.UpdateProgram(ctx, id, prog.Status, StatusCompleted, upd)
	if err != nil {
		return nil, fmt.Errorf("complete program: %w", err)
	}

	s.logEvent(ctx, OwnerProgram, id, EventProgramCompleted, map[string]any{
		"actor":      actor.String(),
		"has_report": updated.Report != nil,
	})

	summary, err := s.ProgressSummary(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("program_id", id.String()).Msg("progress summary for completion notice")
	}
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx, programCompletedMessage(updated, p, summary))

	return updated, nil
}

func (s *Service) GetProgram(ctx context.Context, id uuid.UUID) (*ProgramView, error) {
	prog, err := s.loadProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.parties(ctx, prog.PatientID, prog.CenterID, prog.DoctorID)
	if err != nil {
		return nil, err
	}
	return &ProgramView{
		Program:     *prog,
		PatientName: p.patientName(),
		DoctorName:  p.doctorName(),
		CenterName:  p.centerName(),
	}, nil
}

func (s *Service) ListPrograms(ctx context.Context, f ProgramFilter) ([]ProgramView, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	programs, err := s.repo.ListPrograms(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}

	names := newNameLookup(s)
	out := make([]ProgramView, 0, len(programs))
	for _, prog := range programs {
		v := ProgramView{Program: prog}
		if v.PatientName, err = names.patient(ctx, prog.PatientID); err != nil {
			return nil, err
		}
		if v.CenterName, err = names.center(ctx, prog.CenterID); err != nil {
			return nil, err
		}
		if prog.DoctorID != nil {
			if v.DoctorName, err = names.doctor(ctx, *prog.DoctorID); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) loadProgram(ctx context.Context, id uuid.UUID) (*Program, error) {
	prog, err := s.repo.GetProgram(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load program: %w", err)
	}
	return prog, nil
}
