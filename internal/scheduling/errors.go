package scheduling

import (
	"errors"
	"fmt"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

var (
	ErrCenterNotFound  = errors.New("center not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrProgramNotFound = errors.New("program not found")

	ErrCenterNotApproved  = errors.New("center is not approved for bookings")
	ErrNoDoctors          = errors.New("center has no active doctors")
	ErrNoAvailability     = errors.New("no doctor has a free slot on that date")
	ErrDoctorUnavailable  = errors.New("doctor does not work that day")
	ErrSlotConflict       = errors.New("doctor slot already reserved")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDoctorBusy         = errors.New("doctor is being booked by another request, please retry")
	ErrStaleState         = errors.New("record changed concurrently, please retry")
	ErrDoctorInactive     = errors.New("doctor is inactive")
	ErrDoctorNotAtCenter  = errors.New("doctor does not belong to this center")
	ErrSlotNotOffered     = errors.New("doctor does not offer that time slot")
	ErrNotAssignedDoctor  = errors.New("actor is not the assigned doctor")
	ErrNoDoctorAssigned   = errors.New("no doctor assigned")
	ErrInvalidScore       = errors.New("progress score must be between 1 and 10")
	ErrEmptyProgress      = errors.New("progress entry needs a score, vitals or notes")
	ErrDayOutOfRange      = errors.New("day is outside the program")
	ErrMissingField       = errors.New("missing required field")
	ErrNothingToUpdate    = errors.New("no slot field to update")
	ErrInvalidCenterState = errors.New("invalid center status")
	ErrProgramNotActive   = errors.New("program is not confirmed or in progress")
)

// Aliases so callers can match schedule errors without importing plan.
var (
	ErrDayNotFound       = plan.ErrDayNotFound
	ErrSlotNotFound      = plan.ErrSlotNotFound
	ErrInvalidDate       = plan.ErrInvalidDate
	ErrInvalidTimeSlot   = plan.ErrInvalidTimeSlot
	ErrUnknownTemplate   = plan.ErrUnknownTemplate
	ErrInvalidSlotStatus = plan.ErrInvalidSlotStatus
)

// DoctorUnavailableError names the first program day the doctor does not work.
type DoctorUnavailableError struct {
	Day     int
	Weekday string
}

func (e *DoctorUnavailableError) Error() string {
	if e.Day > 0 {
		return fmt.Sprintf("doctor not available on %s (day %d)", e.Weekday, e.Day)
	}
	return fmt.Sprintf("doctor not available on %s", e.Weekday)
}

func (e *DoctorUnavailableError) Is(target error) bool { return target == ErrDoctorUnavailable }

// SlotConflictError names the first date where the doctor's slot is taken.
// Day is zero for single sessions.
type SlotConflictError struct {
	Date     string
	TimeSlot string
	Day      int
}

func (e *SlotConflictError) Error() string {
	if e.Day > 0 {
		return fmt.Sprintf("doctor already booked at %s on %s (day %d)", e.TimeSlot, e.Date, e.Day)
	}
	return fmt.Sprintf("doctor already booked at %s on %s", e.TimeSlot, e.Date)
}

func (e *SlotConflictError) Is(target error) bool { return target == ErrSlotConflict }

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
