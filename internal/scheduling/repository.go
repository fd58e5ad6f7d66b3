package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

type SessionFilter struct {
	PatientID *uuid.UUID
	CenterID  *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

type ProgramFilter struct {
	PatientID *uuid.UUID
	CenterID  *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
}

// SessionUpdate carries the fields written alongside a status change.
// Reserve swaps the session's active reservation for a new one; Release
// drops it.
type SessionUpdate struct {
	DoctorID *uuid.UUID
	TimeSlot *string
	Report   *TherapyReport
	Reserve  *Reservation
	Release  bool
}

// ProgramUpdate is the program counterpart of SessionUpdate. A non-nil
// Reserve replaces every active reservation of the program.
type ProgramUpdate struct {
	DoctorID    *uuid.UUID
	TherapyTime *string
	Schedule    *plan.Schedule
	Report      *TherapyReport
	Reserve     []Reservation
	Release     bool
}

// Repository contains all storage interactions needed by the service.
// Conditional updates return ErrStaleState when the row is no longer in the
// expected state; reservation writes return *SlotConflictError when another
// active reservation holds the same (doctor, date, slot).
type Repository interface {
	// Directory
	GetCenter(ctx context.Context, id uuid.UUID) (*Center, error)
	CreateCenter(ctx context.Context, c *Center) error
	SetCenterStatus(ctx context.Context, id uuid.UUID, status CenterStatus) (*Center, error)

	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	CreateDoctor(ctx context.Context, d *Doctor) error
	SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error)
	// Active doctors of a center in creation order.
	ListActiveDoctors(ctx context.Context, centerID uuid.UUID) ([]Doctor, error)

	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	CreatePatient(ctx context.Context, p *Patient) error

	// Booked-slot set
	ListReservations(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Reservation, error)

	// Sessions
	CreateSession(ctx context.Context, s *Session, res Reservation) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, from, to Status, upd SessionUpdate) (*Session, error)

	// Programs
	CreateProgram(ctx context.Context, p *Program) error
	GetProgram(ctx context.Context, id uuid.UUID) (*Program, error)
	ListPrograms(ctx context.Context, f ProgramFilter) ([]Program, error)
	UpdateProgram(ctx context.Context, id uuid.UUID, from, to Status, upd ProgramUpdate) (*Program, error)
	// Optimistic write keyed on the updated_at the caller read.
	UpdateProgramSchedule(ctx context.Context, id uuid.UUID, readAt time.Time, s *plan.Schedule) (*Program, error)

	// Progress tracking, append-only
	InsertProgress(ctx context.Context, e *ProgressEntry) error
	ListProgress(ctx context.Context, programID uuid.UUID) ([]ProgressEntry, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
