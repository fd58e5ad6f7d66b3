package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

// Status is shared by sessions and programs.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusConfirmed       Status = "confirmed"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
)

type CenterStatus string

const (
	CenterPending   CenterStatus = "pending"
	CenterApproved  CenterStatus = "approved"
	CenterSuspended CenterStatus = "suspended"
)

type OwnerKind string

const (
	OwnerSession OwnerKind = "session"
	OwnerProgram OwnerKind = "program"
)

var (
	DefaultDoctorSlots = []string{
		"09:00-10:00",
		"10:00-11:00",
		"11:00-12:00",
		"14:00-15:00",
		"15:00-16:00",
		"16:00-17:00",
	}
	DefaultWorkingDays = []time.Weekday{
		time.Monday,
		time.Tuesday,
		time.Wednesday,
		time.Thursday,
		time.Friday,
		time.Saturday,
	}
)

type Center struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Status    CenterStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Doctor struct {
	ID             uuid.UUID
	CenterID       uuid.UUID
	Name           string
	Email          string
	Phone          string
	Specialization string
	Slots          []string // ordered slot catalogue, HH:MM-HH:MM
	WorkingDays    []time.Weekday
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorksOn reports whether d is one of the doctor's working weekdays.
func (d *Doctor) WorksOn(day time.Weekday) bool {
	for _, w := range d.WorkingDays {
		if w == day {
			return true
		}
	}
	return false
}

// Offers reports whether label is in the doctor's slot catalogue.
func (d *Doctor) Offers(label string) bool {
	for _, s := range d.Slots {
		if s == label {
			return true
		}
	}
	return false
}

// TherapyReport is attached by the doctor on completion.
type TherapyReport struct {
	Summary         string    `json:"summary"`
	Medications     string    `json:"medications,omitempty"`
	Instructions    string    `json:"instructions,omitempty"`
	Recommendations string    `json:"recommendations,omitempty"`
	NextSessionDate string    `json:"next_session_date,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

type Session struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	CenterID  uuid.UUID
	DoctorID  *uuid.UUID
	Therapy   string
	Date      time.Time
	TimeSlot  string
	Status    Status
	Notes     string
	Report    *TherapyReport
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Program struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	CenterID    uuid.UUID
	TemplateID  string
	StartDate   time.Time
	Duration    int
	DoctorID    *uuid.UUID
	TherapyTime string
	Status      Status
	Schedule    plan.Schedule
	Report      *TherapyReport
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Span is the calendar extent of a program in working days.
func (p *Program) Span() Span {
	return Span{Start: p.StartDate, Duration: p.Duration}
}

type Span struct {
	Start    time.Time
	Duration int
}

// Reservation is one entry of a doctor's booked-slot set. Only active rows
// count; the store keeps (DoctorID, Date, TimeSlot) unique among them.
type Reservation struct {
	DoctorID  uuid.UUID
	Date      time.Time
	TimeSlot  string
	OwnerKind OwnerKind
	OwnerID   uuid.UUID
}

type Vitals struct {
	BPSystolic  int     `json:"bp_systolic"`
	BPDiastolic int     `json:"bp_diastolic"`
	BloodSugar  float64 `json:"blood_sugar"`
}

// ProgressEntry is append-only.
type ProgressEntry struct {
	ID         uuid.UUID
	ProgramID  uuid.UUID
	DoctorID   uuid.UUID
	Day        int
	Score      *int
	Vitals     *Vitals
	Notes      string
	RecordedAt time.Time
}

type DailyProgress struct {
	Day          int
	Date         string
	Entries      []ProgressEntry
	AverageScore *float64
	LastVitals   *Vitals
}

type EventLog struct {
	ID          int64
	EventType   string
	SubjectKind OwnerKind
	SubjectID   *uuid.UUID
	Payload     []byte
	CreatedAt   time.Time
}

// SessionView resolves display names at read time.
type SessionView struct {
	Session
	PatientName string
	DoctorName  string
	CenterName  string
}

type ProgramView struct {
	Program
	PatientName string
	DoctorName  string
	CenterName  string
}

type DoctorAvailability struct {
	DoctorID   uuid.UUID
	DoctorName string
	Slots      []string
}
