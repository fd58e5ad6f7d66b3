package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const (
	centerCols  = `id, name, email, phone, status, created_at, updated_at`
	doctorCols  = `id, center_id, name, email, phone, specialization, slots, working_days, active, created_at, updated_at`
	patientCols = `id, name, email, phone, created_at`
	sessionCols = `id, patient_id, center_id, doctor_id, therapy, session_date, time_slot, status, notes, report, created_at, updated_at`
	programCols = `id, patient_id, center_id, template_id, start_date, duration, doctor_id, therapy_time, status, schedule, report, created_at, updated_at`
)

// Helpers

func scanCenter(row pgx.Row) (*Center, error) {
	var c Center
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var days []int16

	err := row.Scan(
		&d.ID,
		&d.CenterID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.Specialization,
		&d.Slots,
		&days,
		&d.Active,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.WorkingDays = make([]time.Weekday, len(days))
	for i, v := range days {
		d.WorkingDays[i] = time.Weekday(v)
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var report []byte

	err := row.Scan(
		&s.ID,
		&s.PatientID,
		&s.CenterID,
		&s.DoctorID,
		&s.Therapy,
		&s.Date,
		&s.TimeSlot,
		&s.Status,
		&s.Notes,
		&report,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if s.Report, err = decodeReport(report); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanProgram(row pgx.Row) (*Program, error) {
	var p Program
	var schedule, report []byte

	err := row.Scan(
		&p.ID,
		&p.PatientID,
		&p.CenterID,
		&p.TemplateID,
		&p.StartDate,
		&p.Duration,
		&p.DoctorID,
		&p.TherapyTime,
		&p.Status,
		&schedule,
		&report,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(schedule, &p.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule of program %s: %w", p.ID, err)
	}
	if p.Report, err = decodeReport(report); err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeReport(raw []byte) (*TherapyReport, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r TherapyReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode therapy report: %w", err)
	}
	return &r, nil
}

// encodeJSON returns nil for a nil pointer so the column stays NULL.
func encodeJSON[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func weekdays(days []time.Weekday) []int16 {
	out := make([]int16, len(days))
	for i, d := range days {
		out[i] = int16(d)
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Directory

func (r *PgRepository) GetCenter(ctx context.Context, id uuid.UUID) (*Center, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+centerCols+` FROM centers WHERE id = $1`, id)
	return scanCenter(row)
}

func (r *PgRepository) CreateCenter(ctx context.Context, c *Center) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO centers (id, name, email, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Email, c.Phone, c.Status)
	return row.Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *PgRepository) SetCenterStatus(ctx context.Context, id uuid.UUID, status CenterStatus) (*Center, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE centers
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+centerCols, id, status)
	return scanCenter(row)
}

func (r *PgRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id)
	return scanDoctor(row)
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, center_id, name, email, phone, specialization, slots, working_days, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`, d.ID, d.CenterID, d.Name, d.Email, d.Phone, d.Specialization, d.Slots, weekdays(d.WorkingDays), d.Active)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrCenterNotFound
		}
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *PgRepository) SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET active = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+doctorCols, id, active)
	return scanDoctor(row)
}

func (r *PgRepository) ListActiveDoctors(ctx context.Context, centerID uuid.UUID) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorCols+`
		FROM doctors
		WHERE center_id = $1 AND active
		ORDER BY created_at, id
	`, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING created_at
	`, p.ID, p.Name, p.Email, p.Phone)
	return row.Scan(&p.CreatedAt)
}

// Reservations

func (r *PgRepository) ListReservations(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, slot_date, time_slot, owner_kind, owner_id
		FROM reservations
		WHERE doctor_id = $1
		  AND active
		  AND slot_date BETWEEN $2 AND $3
		ORDER BY slot_date, time_slot
	`, doctorID, plan.Truncate(from), plan.Truncate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.DoctorID, &res.Date, &res.TimeSlot, &res.OwnerKind, &res.OwnerID); err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

// swapReservations releases the owner's active reservations and inserts res
// in their place. A unique violation means another owner holds the slot.
func swapReservations(ctx context.Context, q queryable, kind OwnerKind, owner uuid.UUID, res []Reservation) error {
	if err := releaseReservations(ctx, q, kind, owner); err != nil {
		return err
	}
	for _, want := range res {
		_, err := q.Exec(ctx, `
			INSERT INTO reservations (doctor_id, slot_date, time_slot, owner_kind, owner_id, active, created_at)
			VALUES ($1, $2, $3, $4, $5, true, now())
		`, want.DoctorID, plan.Truncate(want.Date), want.TimeSlot, kind, owner)
		if err != nil {
			if isUniqueViolation(err) {
				return &SlotConflictError{Date: plan.FormatDate(want.Date), TimeSlot: want.TimeSlot}
			}
			return fmt.Errorf("insert reservation: %w", err)
		}
	}
	return nil
}

func releaseReservations(ctx context.Context, q queryable, kind OwnerKind, owner uuid.UUID) error {
	_, err := q.Exec(ctx, `
		UPDATE reservations
		SET active = false,
		    released_at = now()
		WHERE owner_kind = $1
		  AND owner_id = $2
		  AND active
	`, kind, owner)
	if err != nil {
		return fmt.Errorf("release reservations: %w", err)
	}
	return nil
}

// Sessions

func (r *PgRepository) CreateSession(ctx context.Context, s *Session, res Reservation) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO sessions (id, patient_id, center_id, doctor_id, therapy, session_date, time_slot, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			RETURNING created_at, updated_at
		`, s.ID, s.PatientID, s.CenterID, s.DoctorID, s.Therapy, plan.Truncate(s.Date), s.TimeSlot, s.Status, s.Notes)
		if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return swapReservations(ctx, tx, OwnerSession, s.ID, []Reservation{res})
	})
}

func (r *PgRepository) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (r *PgRepository) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	where, args := filterClause(f.PatientID, f.CenterID, f.DoctorID, f.Status)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM sessions
		%s
		ORDER BY session_date, created_at
		LIMIT NULLIF($%d, 0) OFFSET $%d
	`, sessionCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// UpdateSession moves a session from one status to another. The status
// check, field writes and reservation swap share one transaction.
func (r *PgRepository) UpdateSession(ctx context.Context, id uuid.UUID, from, to Status, upd SessionUpdate) (*Session, error) {
	report, err := encodeJSON(upd.Report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	var updated *Session
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE sessions
			SET status = $2,
			    doctor_id = COALESCE($4, doctor_id),
			    time_slot = COALESCE($5, time_slot),
			    report = COALESCE($6, report),
			    updated_at = now()
			WHERE id = $1
			  AND status = $3
			RETURNING `+sessionCols, id, to, from, upd.DoctorID, upd.TimeSlot, report)

		s, err := scanSession(row)
		if errors.Is(err, ErrSessionNotFound) {
			return r.missingOrStale(ctx, tx, "sessions", id, ErrSessionNotFound)
		}
		if err != nil {
			return err
		}

		switch {
		case upd.Reserve != nil:
			err = swapReservations(ctx, tx, OwnerSession, id, []Reservation{*upd.Reserve})
		case upd.Release:
			err = releaseReservations(ctx, tx, OwnerSession, id)
		}
		if err != nil {
			return err
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// missingOrStale tells a vanished row apart from one in another state.
func (r *PgRepository) missingOrStale(ctx context.Context, q queryable, table string, id uuid.UUID, notFound error) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return notFound
	}
	return ErrStaleState
}

// Programs

func (r *PgRepository) CreateProgram(ctx context.Context, p *Program) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	schedule, err := json.Marshal(&p.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO programs (id, patient_id, center_id, template_id, start_date, duration, doctor_id, therapy_time, status, schedule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING created_at, updated_at
	`, p.ID, p.PatientID, p.CenterID, p.TemplateID, plan.Truncate(p.StartDate), p.Duration, p.DoctorID, p.TherapyTime, p.Status, schedule)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

func (r *PgRepository) GetProgram(ctx context.Context, id uuid.UUID) (*Program, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+programCols+` FROM programs WHERE id = $1`, id)
	return scanProgram(row)
}

func (r *PgRepository) ListPrograms(ctx context.Context, f ProgramFilter) ([]Program, error) {
	where, args := filterClause(f.PatientID, f.CenterID, f.DoctorID, f.Status)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM programs
		%s
		ORDER BY start_date, created_at
		LIMIT NULLIF($%d, 0) OFFSET $%d
	`, programCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateProgram(ctx context.Context, id uuid.UUID, from, to Status, upd ProgramUpdate) (*Program, error) {
	report, err := encodeJSON(upd.Report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	schedule, err := encodeJSON(upd.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	var updated *Program
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE programs
			SET status = $2,
			    doctor_id = COALESCE($4, doctor_id),
			    therapy_time = COALESCE($5, therapy_time),
			    schedule = COALESCE($6, schedule),
			    report = COALESCE($7, report),
			    updated_at = now()
			WHERE id = $1
			  AND status = $3
			RETURNING `+programCols, id, to, from, upd.DoctorID, upd.TherapyTime, schedule, report)

		p, err := scanProgram(row)
		if errors.Is(err, ErrProgramNotFound) {
			return r.missingOrStale(ctx, tx, "programs", id, ErrProgramNotFound)
		}
		if err != nil {
			return err
		}

		switch {
		case upd.Reserve != nil:
			err = swapReservations(ctx, tx, OwnerProgram, id, upd.Reserve)
		case upd.Release:
			err = releaseReservations(ctx, tx, OwnerProgram, id)
		}
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateProgramSchedule writes s only if updated_at still equals readAt.
func (r *PgRepository) UpdateProgramSchedule(ctx context.Context, id uuid.UUID, readAt time.Time, s *plan.Schedule) (*Program, error) {
	schedule, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE programs
		SET schedule = $3,
		    updated_at = GREATEST(now(), $2::timestamptz + interval '1 microsecond')
		WHERE id = $1
		  AND updated_at = $2
		RETURNING `+programCols, id, readAt, schedule)

	p, err := scanProgram(row)
	if errors.Is(err, ErrProgramNotFound) {
		return nil, r.missingOrStale(ctx, r.pool, "programs", id, ErrProgramNotFound)
	}
	return p, err
}

// Progress

func (r *PgRepository) InsertProgress(ctx context.Context, e *ProgressEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	vitals, err := encodeJSON(e.Vitals)
	if err != nil {
		return fmt.Errorf("encode vitals: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO progress_entries (id, program_id, doctor_id, day, score, vitals, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
		RETURNING recorded_at
	`, e.ID, e.ProgramID, e.DoctorID, e.Day, e.Score, vitals, e.Notes, nullableTime(e.RecordedAt))
	return row.Scan(&e.RecordedAt)
}

func (r *PgRepository) ListProgress(ctx context.Context, programID uuid.UUID) ([]ProgressEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, program_id, doctor_id, day, score, vitals, notes, recorded_at
		FROM progress_entries
		WHERE program_id = $1
		ORDER BY day, recorded_at
	`, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProgressEntry
	for rows.Next() {
		var e ProgressEntry
		var vitals []byte
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.DoctorID, &e.Day, &e.Score, &vitals, &e.Notes, &e.RecordedAt); err != nil {
			return nil, err
		}
		if len(vitals) > 0 {
			e.Vitals = &Vitals{}
			if err := json.Unmarshal(vitals, e.Vitals); err != nil {
				return nil, fmt.Errorf("decode vitals: %w", err)
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, subject_kind, subject_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.SubjectKind, ev.SubjectID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

// filterClause builds the WHERE clause shared by session and program lists.
func filterClause(patientID, centerID, doctorID *uuid.UUID, status *Status) (string, []any) {
	var conds []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patientID != nil {
		add("patient_id", *patientID)
	}
	if centerID != nil {
		add("center_id", *centerID)
	}
	if doctorID != nil {
		add("doctor_id", *doctorID)
	}
	if status != nil {
		add("status", *status)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
