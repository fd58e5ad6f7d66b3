package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`

	// Set for slot conflicts and unavailable doctors.
	Date     string `json:"date,omitempty"`
	TimeSlot string `json:"time_slot,omitempty"`
	Weekday  string `json:"weekday,omitempty"`
	Day      int    `json:"day,omitempty"`
}

// Requests

type CreateCenterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateDoctorRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	Specialization string   `json:"specialization"`
	Slots          []string `json:"slots"`
	WorkingDays    []string `json:"working_days"`
}

type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateSessionRequest struct {
	PatientID string `json:"patient_id"`
	CenterID  string `json:"center_id"`
	Therapy   string `json:"therapy"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type AssignDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

type CompleteRequest struct {
	Report *ReportRequest `json:"report"`
}

type ReportRequest struct {
	Summary         string `json:"summary"`
	Medications     string `json:"medications"`
	Instructions    string `json:"instructions"`
	Recommendations string `json:"recommendations"`
	NextSessionDate string `json:"next_session_date"`
}

type CreateProgramRequest struct {
	PatientID  string `json:"patient_id"`
	CenterID   string `json:"center_id"`
	TemplateID string `json:"template_id"`
	StartDate  string `json:"start_date"`
}

type BindProgramRequest struct {
	DoctorID string `json:"doctor_id"`
	TimeSlot string `json:"time_slot"`
}

type UpdateSlotRequest struct {
	Activity *string `json:"activity"`
	Notes    *string `json:"notes"`
	Status   *string `json:"status"`
}

type RecordProgressRequest struct {
	Day    int                `json:"day"`
	Score  *int               `json:"score"`
	Vitals *scheduling.Vitals `json:"vitals"`
	Notes  string             `json:"notes"`
}

// Responses

type CenterResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	CenterID       uuid.UUID `json:"center_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Slots          []string  `json:"slots"`
	WorkingDays    []string  `json:"working_days"`
	Active         bool      `json:"active"`
}

type PatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	ID          uuid.UUID                 `json:"id"`
	PatientID   uuid.UUID                 `json:"patient_id"`
	PatientName string                    `json:"patient_name,omitempty"`
	CenterID    uuid.UUID                 `json:"center_id"`
	CenterName  string                    `json:"center_name,omitempty"`
	DoctorID    *uuid.UUID                `json:"doctor_id,omitempty"`
	DoctorName  string                    `json:"doctor_name,omitempty"`
	Therapy     string                    `json:"therapy"`
	Date        string                    `json:"date"`
	TimeSlot    string                    `json:"time_slot"`
	Status      string                    `json:"status"`
	Notes       string                    `json:"notes,omitempty"`
	Report      *scheduling.TherapyReport `json:"report,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

type ProgramResponse struct {
	ID          uuid.UUID                 `json:"id"`
	PatientID   uuid.UUID                 `json:"patient_id"`
	PatientName string                    `json:"patient_name,omitempty"`
	CenterID    uuid.UUID                 `json:"center_id"`
	CenterName  string                    `json:"center_name,omitempty"`
	DoctorID    *uuid.UUID                `json:"doctor_id,omitempty"`
	DoctorName  string                    `json:"doctor_name,omitempty"`
	TemplateID  string                    `json:"template_id"`
	StartDate   string                    `json:"start_date"`
	Duration    int                       `json:"duration"`
	TherapyTime string                    `json:"therapy_time"`
	Status      string                    `json:"status"`
	Schedule    plan.Schedule             `json:"schedule"`
	Report      *scheduling.TherapyReport `json:"report,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

type ProgressEntryResponse struct {
	ID         uuid.UUID          `json:"id"`
	ProgramID  uuid.UUID          `json:"program_id"`
	DoctorID   uuid.UUID          `json:"doctor_id"`
	Day        int                `json:"day"`
	Score      *int               `json:"score,omitempty"`
	Vitals     *scheduling.Vitals `json:"vitals,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	RecordedAt time.Time          `json:"recorded_at"`
}

type DailyProgressResponse struct {
	Day          int                     `json:"day"`
	Date         string                  `json:"date,omitempty"`
	AverageScore *float64                `json:"average_score,omitempty"`
	LastVitals   *scheduling.Vitals      `json:"last_vitals,omitempty"`
	Entries      []ProgressEntryResponse `json:"entries"`
}

type FreeSlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

type DoctorAvailabilityResponse struct {
	DoctorID   uuid.UUID `json:"doctor_id"`
	DoctorName string    `json:"doctor_name"`
	Slots      []string  `json:"slots"`
}

type CenterAvailabilityResponse struct {
	CenterID uuid.UUID                    `json:"center_id"`
	Date     string                       `json:"date"`
	Doctors  []DoctorAvailabilityResponse `json:"doctors"`
}

type TemplateResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Duration    int      `json:"duration"`
	Precautions []string `json:"precautions"`
}

func toCenterResponse(c *scheduling.Center) CenterResponse {
	return CenterResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toDoctorResponse(d *scheduling.Doctor) DoctorResponse {
	days := make([]string, len(d.WorkingDays))
	for i, wd := range d.WorkingDays {
		days[i] = plan.WeekdayName(wd)
	}
	return DoctorResponse{
		ID:             d.ID,
		CenterID:       d.CenterID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Specialization: d.Specialization,
		Slots:          d.Slots,
		WorkingDays:    days,
		Active:         d.Active,
	}
}

func toPatientResponse(p *scheduling.Patient) PatientResponse {
	return PatientResponse{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, CreatedAt: p.CreatedAt}
}

func toSessionResponse(v scheduling.SessionView) SessionResponse {
	s := v.Session
	return SessionResponse{
		ID:          s.ID,
		PatientID:   s.PatientID,
		PatientName: v.PatientName,
		CenterID:    s.CenterID,
		CenterName:  v.CenterName,
		DoctorID:    s.DoctorID,
		DoctorName:  v.DoctorName,
		Therapy:     s.Therapy,
		Date:        plan.FormatDate(s.Date),
		TimeSlot:    s.TimeSlot,
		Status:      string(s.Status),
		Notes:       s.Notes,
		Report:      s.Report,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toProgramResponse(v scheduling.ProgramView) ProgramResponse {
	p := v.Program
	return ProgramResponse{
		ID:          p.ID,
		PatientID:   p.PatientID,
		PatientName: v.PatientName,
		CenterID:    p.CenterID,
		CenterName:  v.CenterName,
		DoctorID:    p.DoctorID,
		DoctorName:  v.DoctorName,
		TemplateID:  p.TemplateID,
		StartDate:   plan.FormatDate(p.StartDate),
		Duration:    p.Duration,
		TherapyTime: p.TherapyTime,
		Status:      string(p.Status),
		Schedule:    p.Schedule,
		Report:      p.Report,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProgressEntryResponse(e scheduling.ProgressEntry) ProgressEntryResponse {
	return ProgressEntryResponse{
		ID:         e.ID,
		ProgramID:  e.ProgramID,
		DoctorID:   e.DoctorID,
		Day:        e.Day,
		Score:      e.Score,
		Vitals:     e.Vitals,
		Notes:      e.Notes,
		RecordedAt: e.RecordedAt,
	}
}

func (r *ReportRequest) toReport() *scheduling.TherapyReport {
	if r == nil {
		return nil
	}
	return &scheduling.TherapyReport{
		Summary:         r.Summary,
		Medications:     r.Medications,
		Instructions:    r.Instructions,
		Recommendations: r.Recommendations,
		NextSessionDate: r.NextSessionDate,
	}
}
