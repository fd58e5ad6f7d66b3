package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// nameLookup memoises directory names for the duration of one list call.
type nameLookup struct {
	svc      *Service
	patients map[uuid.UUID]string
	centers  map[uuid.UUID]string
	doctors  map[uuid.UUID]string
}

func newNameLookup(svc *Service) *nameLookup {
	return &nameLookup{
		svc:      svc,
		patients: make(map[uuid.UUID]string),
		centers:  make(map[uuid.UUID]string),
		doctors:  make(map[uuid.UUID]string),
	}
}

func (l *nameLookup) patient(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := l.patients[id]; ok {
		return name, nil
	}
	p, err := l.svc.repo.GetPatient(ctx, id)
	name, err := nameOrMissing(p, err, ErrPatientNotFound, func(p *Patient) string { return p.Name })
	if err != nil {
		return "", fmt.Errorf("load patient: %w", err)
	}
	l.patients[id] = name
	return name, nil
}

func (l *nameLookup) center(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := l.centers[id]; ok {
		return name, nil
	}
	c, err := l.svc.repo.GetCenter(ctx, id)
	name, err := nameOrMissing(c, err, ErrCenterNotFound, func(c *Center) string { return c.Name })
	if err != nil {
		return "", fmt.Errorf("load center: %w", err)
	}
	l.centers[id] = name
	return name, nil
}

func (l *nameLookup) doctor(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := l.doctors[id]; ok {
		return name, nil
	}
	d, err := l.svc.repo.GetDoctor(ctx, id)
	name, err := nameOrMissing(d, err, ErrDoctorNotFound, func(d *Doctor) string { return d.Name })
	if err != nil {
		return "", fmt.Errorf("load doctor: %w", err)
	}
	l.doctors[id] = name
	return name, nil
}

// nameOrMissing maps a not-found lookup to an empty name.
func nameOrMissing[T any](v *T, err, notFound error, name func(*T) string) (string, error) {
	if err != nil {
		if errors.Is(err, notFound) {
			return "", nil
		}
		return "", err
	}
	return name(v), nil
}
