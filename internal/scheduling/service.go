package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	notifier  notify.Notifier
	resolver  *Resolver
	validator *Validator
	cfg       config.Config
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier notify.Notifier, cfg config.Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		notifier:  notifier,
		resolver:  NewResolver(repo),
		validator: NewValidator(repo),
		cfg:       cfg,
		logger:    logger.With().Str("component", "scheduling").Logger(),
		now:       time.Now,
	}
}

// FreeSlots exposes the availability resolver.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return s.resolver.FreeSlots(ctx, doctorID, date)
}

func (s *Service) CenterAvailability(ctx context.Context, centerID uuid.UUID, date time.Time) ([]DoctorAvailability, error) {
	if _, err := s.repo.GetCenter(ctx, centerID); err != nil {
		return nil, err
	}
	return s.resolver.CenterAvailability(ctx, centerID, date)
}

// withDoctorLock serialises writes to one doctor's booked-slot set. The
// reservation unique index still guards commits made without the lock.
func (s *Service) withDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, redisclient.DoctorKey(doctorID), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrDoctorBusy
	}
	return err
}

// send delivers notifications without failing the caller.
func (s *Service) send(ctx context.Context, msgs ...notify.Message) {
	if s.notifier == nil {
		return
	}
	for _, msg := range msgs {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = s.now()
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Warn().Err(err).
				Str("event", msg.Event).
				Str("related_id", msg.RelatedID).
				Msg("notification not delivered")
		}
	}
}

// parties resolves the directory records behind an entity. Records that no
// longer exist are left nil.
func (s *Service) parties(ctx context.Context, patientID, centerID uuid.UUID, doctorID *uuid.UUID) (parties, error) {
	var p parties

	patient, err := s.repo.GetPatient(ctx, patientID)
	switch {
	case err == nil:
		p.patient = patient
	case !errors.Is(err, ErrPatientNotFound):
		return p, fmt.Errorf("load patient: %w", err)
	}

	center, err := s.repo.GetCenter(ctx, centerID)
	switch {
	case err == nil:
		p.center = center
	case !errors.Is(err, ErrCenterNotFound):
		return p, fmt.Errorf("load center: %w", err)
	}

	if doctorID != nil {
		doctor, err := s.repo.GetDoctor(ctx, *doctorID)
		switch {
		case err == nil:
			p.doctor = doctor
		case !errors.Is(err, ErrDoctorNotFound):
			return p, fmt.Errorf("load doctor: %w", err)
		}
	}
	return p, nil
}

// partiesForNotify is parties for the post-commit path, where lookup
// failures only cost the message its names.
func (s *Service) partiesForNotify(ctx context.Context, patientID, centerID uuid.UUID, doctorID *uuid.UUID) parties {
	p, err := s.parties(ctx, patientID, centerID, doctorID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("resolve notification recipients")
	}
	return p
}

// approvedCenter loads a center that may take bookings.
func (s *Service) approvedCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	center, err := s.repo.GetCenter(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCenterNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load center: %w", err)
	}
	if center.Status != CenterApproved {
		return nil, ErrCenterNotApproved
	}
	return center, nil
}

// bookableDoctor loads a doctor that may be bound to records of centerID.
func (s *Service) bookableDoctor(ctx context.Context, doctorID, centerID uuid.UUID) (*Doctor, error) {
	doctor, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.CenterID != centerID {
		return nil, ErrDoctorNotAtCenter
	}
	if !doctor.Active {
		return nil, ErrDoctorInactive
	}
	return doctor, nil
}

func (s *Service) requirePatient(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetPatient(ctx, id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return err
		}
		return fmt.Errorf("load patient: %w", err)
	}
	return nil
}

// requireAssignedDoctor checks that actor is the doctor bound to a record.
func requireAssignedDoctor(assigned *uuid.UUID, actor uuid.UUID) error {
	if assigned == nil {
		return ErrNoDoctorAssigned
	}
	if *assigned != actor {
		return ErrNotAssignedDoctor
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
