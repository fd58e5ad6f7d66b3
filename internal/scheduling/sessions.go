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

type SessionRequest struct {
	PatientID uuid.UUID
	CenterID  uuid.UUID
	Therapy   string
	Date      time.Time
	Notes     string
}

// CreateSession books a single session with the first doctor/slot pair that
// fits. Doctors are tried in creation order and slots in catalogue order.
// The session stays pending_approval until the center confirms it.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.Therapy == "" {
		return nil, fmt.Errorf("%w: therapy", ErrMissingField)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}
	if err := s.requirePatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.approvedCenter(ctx, req.CenterID); err != nil {
		return nil, err
	}

	doctors, err := s.repo.ListActiveDoctors(ctx, req.CenterID)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if len(doctors) == 0 {
		return nil, ErrNoDoctors
	}

	date := plan.Truncate(req.Date)
	id := uuid.New()
	var created *Session

	for i := range doctors {
		doctor := &doctors[i]
		if !doctor.WorksOn(date.Weekday()) {
			continue
		}

		err := s.withDoctorLock(ctx, doctor.ID, func(lockCtx context.Context) error {
			free, err := s.resolver.freeSlots(lockCtx, doctor, date, uuid.Nil)
			if err != nil {
				return err
			}
			for _, slot := range free {
				doctorID := doctor.ID
				sess := &Session{
					ID:        id,
					PatientID: req.PatientID,
					CenterID:  req.CenterID,
					DoctorID:  &doctorID,
					Therapy:   req.Therapy,
					Date:      date,
					TimeSlot:  slot,
					Status:    StatusPendingApproval,
					Notes:     req.Notes,
				}
				res := Reservation{DoctorID: doctorID, Date: date, TimeSlot: slot, OwnerKind: OwnerSession, OwnerID: id}

				err := s.repo.CreateSession(lockCtx, sess, res)
				if errors.Is(err, ErrSlotConflict) {
					// Taken by a writer that did not hold the lock.
					continue
				}
				if err != nil {
					return fmt.Errorf("create session: %w", err)
				}
				created = sess
				return nil
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if created != nil {
			break
		}
	}

	if created == nil {
		return nil, ErrNoAvailability
	}

	s.logEvent(ctx, OwnerSession, created.ID, EventSessionCreated, map[string]any{
		"patient_id": created.PatientID.String(),
		"center_id":  created.CenterID.String(),
		"doctor_id":  created.DoctorID.String(),
		"date":       plan.FormatDate(created.Date),
		"time_slot":  created.TimeSlot,
	})
	p := s.partiesForNotify(ctx, created.PatientID, created.CenterID, created.DoctorID)
	s.send(ctx, sessionRequestedMessages(created, p)...)

	return created, nil
}

// ApproveSession confirms the assigned doctor and slot.
func (s *Service) ApproveSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(sess.Status, StatusConfirmed); err != nil {
		return nil, err
	}
	if sess.DoctorID == nil {
		return nil, ErrNoDoctorAssigned
	}

	updated, err := s.repo.UpdateSession(ctx, id, sess.Status, StatusConfirmed, SessionUpdate{})
	if err != nil {
		return nil, fmt.Errorf("confirm session: %w", err)
	}

	s.logEvent(ctx, OwnerSession, id, EventSessionConfirmed, map[string]any{
		"doctor_id": updated.DoctorID.String(),
		"time_slot": updated.TimeSlot,
	})
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx, sessionConfirmedMessage(updated, p))

	return updated, nil
}

// RejectSession rejects a pending session and frees its slot.
func (s *Service) RejectSession(ctx context.Context, id uuid.UUID, reason string) (*Session, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(sess.Status, StatusRejected); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSession(ctx, id, sess.Status, StatusRejected, SessionUpdate{Release: true})
	if err != nil {
		return nil, fmt.Errorf("reject session: %w", err)
	}

	s.logEvent(ctx, OwnerSession, id, EventSessionRejected, map[string]any{"reason": reason})
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, nil)
	s.send(ctx, sessionRejectedMessage(updated, p))

	return updated, nil
}

// AssignSessionDoctor moves a session to doctorID's first free slot on the
// session date and confirms it.
func (s *Service) AssignSessionDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Session, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Status.Reassignable() {
		return nil, &InvalidTransitionError{From: sess.Status, To: StatusConfirmed}
	}

	doctor, err := s.bookableDoctor(ctx, doctorID, sess.CenterID)
	if err != nil {
		return nil, err
	}
	if !doctor.WorksOn(sess.Date.Weekday()) {
		return nil, &DoctorUnavailableError{Weekday: plan.WeekdayName(sess.Date.Weekday())}
	}

	var updated *Session
	err = s.withDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		free, err := s.resolver.freeSlots(lockCtx, doctor, sess.Date, sess.ID)
		if err != nil {
			return err
		}
		for _, slot := range free {
			res := Reservation{DoctorID: doctorID, Date: sess.Date, TimeSlot: slot, OwnerKind: OwnerSession, OwnerID: sess.ID}
			upd := SessionUpdate{DoctorID: &doctorID, TimeSlot: &slot, Reserve: &res}

			u, err := s.repo.UpdateSession(lockCtx, id, sess.Status, StatusConfirmed, upd)
			if errors.Is(err, ErrSlotConflict) {
				continue
			}
			if err != nil {
				return fmt.Errorf("assign session: %w", err)
			}
			updated = u
			return nil
		}
		return ErrNoAvailability
	})
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"from_status": string(sess.Status),
		"doctor_id":   doctorID.String(),
		"time_slot":   updated.TimeSlot,
	}
	if sess.DoctorID != nil {
		payload["previous_doctor_id"] = sess.DoctorID.String()
		payload["previous_time_slot"] = sess.TimeSlot
	}
	s.logEvent(ctx, OwnerSession, id, EventSessionReassigned, payload)

	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx,
		doctorAssignedMessage(notify.KindSession, EventSessionReassigned, id.String(), p),
		sessionConfirmedMessage(updated, p),
	)

	return updated, nil
}

// StartSession is the assigned doctor beginning the therapy.
func (s *Service) StartSession(ctx context.Context, id, actor uuid.UUID) (*Session, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(sess.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := Transition(sess.Status, StatusInProgress); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateSession(ctx, id, sess.Status, StatusInProgress, SessionUpdate{})
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	s.logEvent(ctx, OwnerSession, id, EventSessionStarted, map[string]any{"actor": actor.String()})
	return updated, nil
}

// CompleteSession closes an in-progress session, optionally attaching the
// doctor's report. The slot stays reserved as historical occupancy.
func (s *Service) CompleteSession(ctx context.Context, id, actor uuid.UUID, report *TherapyReport) (*Session, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAssignedDoctor(sess.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := Transition(sess.Status, StatusCompleted); err != nil {
		return nil, err
	}

	upd := SessionUpdate{}
	if report != nil {
		r := *report
		r.CompletedAt = s.now()
		upd.Report = &r
	}

	updated, err := s.repo.UpdateSession(ctx, id, sess.Status, StatusCompleted, upd)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	s.logEvent(ctx, OwnerSession, id, EventSessionCompleted, map[string]any{
		"actor":      actor.String(),
		"has_report": updated.Report != nil,
	})
	p := s.partiesForNotify(ctx, updated.PatientID, updated.CenterID, updated.DoctorID)
	s.send(ctx, sessionCompletedMessage(updated, p))

	return updated, nil
}

// GetSession returns a session with display names resolved.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.parties(ctx, sess.PatientID, sess.CenterID, sess.DoctorID)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		Session:     *sess,
		PatientName: p.patientName(),
		DoctorName:  p.doctorName(),
		CenterName:  p.centerName(),
	}, nil
}

func (s *Service) ListSessions(ctx context.Context, f SessionFilter) ([]SessionView, error) {
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	sessions, err := s.repo.ListSessions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	names := newNameLookup(s)
	out := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		v := SessionView{Session: sess}
		if v.PatientName, err = names.patient(ctx, sess.PatientID); err != nil {
			return nil, err
		}
		if v.CenterName, err = names.center(ctx, sess.CenterID); err != nil {
			return nil, err
		}
		if sess.DoctorID != nil {
			if v.DoctorName, err = names.doctor(ctx, *sess.DoctorID); err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) loadSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}
