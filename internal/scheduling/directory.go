package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

type CenterRequest struct {
	Name  string
	Email string
	Phone string
}

// CreateCenter registers a center. It cannot take bookings until approved.
func (s *Service) CreateCenter(ctx context.Context, req CenterRequest) (*Center, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	c := &Center{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(req.Name),
		Email:  req.Email,
		Phone:  req.Phone,
		Status: CenterPending,
	}
	if err := s.repo.CreateCenter(ctx, c); err != nil {
		return nil, fmt.Errorf("create center: %w", err)
	}
	return c, nil
}

func (s *Service) ApproveCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	return s.setCenterStatus(ctx, id, CenterApproved)
}

// SuspendCenter stops new bookings. Existing sessions and programs keep
// their reservations.
func (s *Service) SuspendCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	return s.setCenterStatus(ctx, id, CenterSuspended)
}

func (s *Service) setCenterStatus(ctx context.Context, id uuid.UUID, status CenterStatus) (*Center, error) {
	switch status {
	case CenterPending, CenterApproved, CenterSuspended:
	default:
		return nil, ErrInvalidCenterState
	}
	c, err := s.repo.SetCenterStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("center_id", id.String()).Str("status", string(status)).Msg("center status changed")
	return c, nil
}

func (s *Service) GetCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	return s.repo.GetCenter(ctx, id)
}

type DoctorRequest struct {
	CenterID       uuid.UUID
	Name           string
	Email          string
	Phone          string
	Specialization string
	Slots          []string
	WorkingDays    []time.Weekday
}

// CreateDoctor adds an active doctor to a center. Empty slot and working-day
// lists fall back to the defaults.
func (s *Service) CreateDoctor(ctx context.Context, req DoctorRequest) (*Doctor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if _, err := s.repo.GetCenter(ctx, req.CenterID); err != nil {
		return nil, err
	}

	slots := req.Slots
	if len(slots) == 0 {
		slots = DefaultDoctorSlots
	}
	seen := make(map[string]struct{}, len(slots))
	clean := make([]string, 0, len(slots))
	for _, slot := range slots {
		if _, _, err := plan.ParseTimeSlot(slot); err != nil {
			return nil, err
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		clean = append(clean, slot)
	}

	days := req.WorkingDays
	if len(days) == 0 {
		days = DefaultWorkingDays
	}

	d := &Doctor{
		ID:             uuid.New(),
		CenterID:       req.CenterID,
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		Phone:          req.Phone,
		Specialization: req.Specialization,
		Slots:          clean,
		WorkingDays:    append([]time.Weekday(nil), days...),
		Active:         true,
	}
	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

// DeactivateDoctor removes a doctor from future assignment. Doctors are
// never deleted.
func (s *Service) DeactivateDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.SetDoctorActive(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("doctor_id", id.String()).Msg("doctor deactivated")
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

type PatientRequest struct {
	Name  string
	Email string
	Phone string
}

func (s *Service) CreatePatient(ctx context.Context, req PatientRequest) (*Patient, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	p := &Patient{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := s.repo.CreatePatient(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}
