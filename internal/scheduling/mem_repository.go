package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

// MemRepository is an in-process Repository used when no database is
// configured (STORE=memory) and by tests. It enforces the same conditional
// write and reservation uniqueness rules as PgRepository.
type MemRepository struct {
	mu sync.Mutex

	centers     map[uuid.UUID]Center
	doctors     map[uuid.UUID]Doctor
	doctorOrder []uuid.UUID
	patients    map[uuid.UUID]Patient
	sessions    map[uuid.UUID]Session
	programs    map[uuid.UUID]Program

	reservations []memReservation
	progress     []ProgressEntry
	events       []EventLog
	nextEventID  int64

	now func() time.Time
}

type memReservation struct {
	Reservation
	active bool
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		centers:  make(map[uuid.UUID]Center),
		doctors:  make(map[uuid.UUID]Doctor),
		patients: make(map[uuid.UUID]Patient),
		sessions: make(map[uuid.UUID]Session),
		programs: make(map[uuid.UUID]Program),
		now:      time.Now,
	}
}

// Directory

func (r *MemRepository) GetCenter(_ context.Context, id uuid.UUID) (*Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.centers[id]
	if !ok {
		return nil, ErrCenterNotFound
	}
	return &c, nil
}

func (r *MemRepository) CreateCenter(_ context.Context, c *Center) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.stamp(&c.CreatedAt, &c.UpdatedAt)
	r.centers[c.ID] = *c
	return nil
}

func (r *MemRepository) SetCenterStatus(_ context.Context, id uuid.UUID, status CenterStatus) (*Center, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.centers[id]
	if !ok {
		return nil, ErrCenterNotFound
	}
	c.Status = status
	c.UpdatedAt = r.now()
	r.centers[id] = c
	return &c, nil
}

func (r *MemRepository) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return copyDoctor(d), nil
}

func (r *MemRepository) CreateDoctor(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.centers[d.CenterID]; !ok {
		return ErrCenterNotFound
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.stamp(&d.CreatedAt, &d.UpdatedAt)
	r.doctors[d.ID] = *copyDoctor(*d)
	r.doctorOrder = append(r.doctorOrder, d.ID)
	return nil
}

func (r *MemRepository) SetDoctorActive(_ context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.Active = active
	d.UpdatedAt = r.now()
	r.doctors[id] = d
	return copyDoctor(d), nil
}

func (r *MemRepository) ListActiveDoctors(_ context.Context, centerID uuid.UUID) ([]Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Doctor
	for _, id := range r.doctorOrder {
		d := r.doctors[id]
		if d.CenterID == centerID && d.Active {
			out = append(out, *copyDoctor(d))
		}
	}
	return out, nil
}

func (r *MemRepository) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemRepository) CreatePatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
	}
	r.patients[p.ID] = *p
	return nil
}

// Reservations

func (r *MemRepository) ListReservations(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, to = plan.Truncate(from), plan.Truncate(to)
	var out []Reservation
	for _, res := range r.reservations {
		if !res.active || res.DoctorID != doctorID {
			continue
		}
		if res.Date.Before(from) || res.Date.After(to) {
			continue
		}
		out = append(out, res.Reservation)
	}
	return out, nil
}

// reserveLocked swaps the owner's active reservations for res, all or
// nothing.
func (r *MemRepository) reserveLocked(kind OwnerKind, owner uuid.UUID, res []Reservation) error {
	for _, want := range res {
		for _, have := range r.reservations {
			if !have.active || (have.OwnerKind == kind && have.OwnerID == owner) {
				continue
			}
			if have.DoctorID == want.DoctorID && have.Date.Equal(plan.Truncate(want.Date)) && have.TimeSlot == want.TimeSlot {
				return &SlotConflictError{Date: plan.FormatDate(want.Date), TimeSlot: want.TimeSlot}
			}
		}
	}
	r.releaseLocked(kind, owner)
	for _, want := range res {
		want.Date = plan.Truncate(want.Date)
		want.OwnerKind = kind
		want.OwnerID = owner
		r.reservations = append(r.reservations, memReservation{Reservation: want, active: true})
	}
	return nil
}

func (r *MemRepository) releaseLocked(kind OwnerKind, owner uuid.UUID) {
	for i := range r.reservations {
		if r.reservations[i].OwnerKind == kind && r.reservations[i].OwnerID == owner {
			r.reservations[i].active = false
		}
	}
}

// Sessions

func (r *MemRepository) CreateSession(_ context.Context, s *Session, res Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if err := r.reserveLocked(OwnerSession, s.ID, []Reservation{res}); err != nil {
		return err
	}
	r.stamp(&s.CreatedAt, &s.UpdatedAt)
	r.sessions[s.ID] = *s
	return nil
}

func (r *MemRepository) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *MemRepository) ListSessions(_ context.Context, f SessionFilter) ([]Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Session
	for _, s := range r.sessions {
		if f.PatientID != nil && s.PatientID != *f.PatientID {
			continue
		}
		if f.CenterID != nil && s.CenterID != *f.CenterID {
			continue
		}
		if f.DoctorID != nil && (s.DoctorID == nil || *s.DoctorID != *f.DoctorID) {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *MemRepository) UpdateSession(_ context.Context, id uuid.UUID, from, to Status, upd SessionUpdate) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Status != from {
		return nil, ErrStaleState
	}
	if upd.Reserve != nil {
		if err := r.reserveLocked(OwnerSession, id, []Reservation{*upd.Reserve}); err != nil {
			return nil, err
		}
	} else if upd.Release {
		r.releaseLocked(OwnerSession, id)
	}
	if upd.DoctorID != nil {
		doctorID := *upd.DoctorID
		s.DoctorID = &doctorID
	}
	if upd.TimeSlot != nil {
		s.TimeSlot = *upd.TimeSlot
	}
	if upd.Report != nil {
		report := *upd.Report
		s.Report = &report
	}
	s.Status = to
	s.UpdatedAt = r.now()
	r.sessions[id] = s
	return &s, nil
}

// Programs

func (r *MemRepository) CreateProgram(_ context.Context, p *Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.stamp(&p.CreatedAt, &p.UpdatedAt)
	r.programs[p.ID] = copyProgram(*p)
	return nil
}

func (r *MemRepository) GetProgram(_ context.Context, id uuid.UUID) (*Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, ErrProgramNotFound
	}
	out := copyProgram(p)
	return &out, nil
}

func (r *MemRepository) ListPrograms(_ context.Context, f ProgramFilter) ([]Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Program
	for _, p := range r.programs {
		if f.PatientID != nil && p.PatientID != *f.PatientID {
			continue
		}
		if f.CenterID != nil && p.CenterID != *f.CenterID {
			continue
		}
		if f.DoctorID != nil && (p.DoctorID == nil || *p.DoctorID != *f.DoctorID) {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, copyProgram(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *MemRepository) UpdateProgram(_ context.Context, id uuid.UUID, from, to Status, upd ProgramUpdate) (*Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, ErrProgramNotFound
	}
	if p.Status != from {
		return nil, ErrStaleState
	}
	if upd.Reserve != nil {
		if err := r.reserveLocked(OwnerProgram, id, upd.Reserve); err != nil {
			return nil, err
		}
	} else if upd.Release {
		r.releaseLocked(OwnerProgram, id)
	}
	if upd.DoctorID != nil {
		doctorID := *upd.DoctorID
		p.DoctorID = &doctorID
	}
	if upd.TherapyTime != nil {
		p.TherapyTime = *upd.TherapyTime
	}
	if upd.Schedule != nil {
		p.Schedule = *upd.Schedule.Clone()
	}
	if upd.Report != nil {
		report := *upd.Report
		p.Report = &report
	}
	p.Status = to
	p.UpdatedAt = r.now()
	r.programs[id] = p
	out := copyProgram(p)
	return &out, nil
}

func (r *MemRepository) UpdateProgramSchedule(_ context.Context, id uuid.UUID, readAt time.Time, s *plan.Schedule) (*Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, ErrProgramNotFound
	}
	if !p.UpdatedAt.Equal(readAt) {
		return nil, ErrStaleState
	}
	p.Schedule = *s.Clone()
	p.UpdatedAt = r.now()
	if !p.UpdatedAt.After(readAt) {
		p.UpdatedAt = readAt.Add(time.Microsecond)
	}
	r.programs[id] = p
	out := copyProgram(p)
	return &out, nil
}

// Progress

func (r *MemRepository) InsertProgress(_ context.Context, e *ProgressEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = r.now()
	}
	r.progress = append(r.progress, *e)
	return nil
}

func (r *MemRepository) ListProgress(_ context.Context, programID uuid.UUID) ([]ProgressEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ProgressEntry
	for _, e := range r.progress {
		if e.ProgramID == programID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

func (r *MemRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEventID++
	ev.ID = r.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log.
func (r *MemRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventLog(nil), r.events...)
}

// Helpers

func (r *MemRepository) stamp(created, updated *time.Time) {
	now := r.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func copyDoctor(d Doctor) *Doctor {
	d.Slots = append([]string(nil), d.Slots...)
	d.WorkingDays = append([]time.Weekday(nil), d.WorkingDays...)
	return &d
}

func copyProgram(p Program) Program {
	if c := p.Schedule.Clone(); c != nil {
		p.Schedule = *c
	}
	return p
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
