package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemRepository_ReservationUniqueness(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	doctor := uuid.New()
	date := mustDate(t, tuesday)

	first := &Session{ID: uuid.New(), Status: StatusPendingApproval, Date: date, TimeSlot: "09:00-10:00"}
	if err := repo.CreateSession(ctx, first, Reservation{DoctorID: doctor, Date: date, TimeSlot: "09:00-10:00"}); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := &Session{ID: uuid.New(), Status: StatusPendingApproval, Date: date, TimeSlot: "09:00-10:00"}
	err := repo.CreateSession(ctx, second, Reservation{DoctorID: doctor, Date: date, TimeSlot: "09:00-10:00"})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
	if _, err := repo.GetSession(ctx, second.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("conflicting session must not be stored")
	}

	// Releasing makes the slot reusable; the inactive row stays behind.
	if _, err := repo.UpdateSession(ctx, first.ID, StatusPendingApproval, StatusRejected, SessionUpdate{Release: true}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := repo.CreateSession(ctx, second, Reservation{DoctorID: doctor, Date: date, TimeSlot: "09:00-10:00"}); err != nil {
		t.Fatalf("create after release: %v", err)
	}
	active, _ := repo.ListReservations(ctx, doctor, date, date)
	if len(active) != 1 || active[0].OwnerID != second.ID {
		t.Fatalf("expected one active reservation owned by second, got %+v", active)
	}
}

func TestMemRepository_ConditionalUpdate(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()

	s := &Session{ID: uuid.New(), Status: StatusPendingApproval}
	if err := repo.CreateSession(ctx, s, Reservation{DoctorID: uuid.New(), Date: mustDate(t, tuesday), TimeSlot: "09:00-10:00"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateSession(ctx, s.ID, StatusConfirmed, StatusInProgress, SessionUpdate{}); !errors.Is(err, ErrStaleState) {
		t.Fatalf("expected ErrStaleState, got %v", err)
	}
	if _, err := repo.UpdateSession(ctx, uuid.New(), StatusPendingApproval, StatusConfirmed, SessionUpdate{}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemRepository_ProgramReserveIsAllOrNothing(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	doctor := uuid.New()

	blocker := uuid.New()
	if err := repo.reserveLocked(OwnerSession, blocker, []Reservation{{DoctorID: doctor, Date: mustDate(t, "2025-03-07"), TimeSlot: "10:00-11:00"}}); err != nil {
		t.Fatalf("reserve blocker: %v", err)
	}

	prog := &Program{ID: uuid.New(), Status: StatusPendingApproval, StartDate: mustDate(t, wednesday), Duration: 3}
	if err := repo.CreateProgram(ctx, prog); err != nil {
		t.Fatalf("create program: %v", err)
	}
	var res []Reservation
	for _, d := range []string{wednesday, "2025-03-06", "2025-03-07"} {
		res = append(res, Reservation{DoctorID: doctor, Date: mustDate(t, d), TimeSlot: "10:00-11:00"})
	}

	_, err := repo.UpdateProgram(ctx, prog.ID, StatusPendingApproval, StatusConfirmed, ProgramUpdate{DoctorID: &doctor, Reserve: res})
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) || conflict.Date != "2025-03-07" {
		t.Fatalf("expected conflict on 2025-03-07, got %v", err)
	}

	active, _ := repo.ListReservations(ctx, doctor, mustDate(t, wednesday), mustDate(t, "2025-03-07"))
	if len(active) != 1 {
		t.Fatalf("expected only the blocker to remain, got %d", len(active))
	}
	got, _ := repo.GetProgram(ctx, prog.ID)
	if got.Status != StatusPendingApproval || got.DoctorID != nil {
		t.Fatalf("program modified by failed update: %+v", got)
	}
}

func TestMemRepository_ListActiveDoctorsInCreationOrder(t *testing.T) {
	repo := NewMemRepository()
	ctx := context.Background()
	center := uuid.New()
	if err := repo.CreateCenter(ctx, &Center{ID: center, Name: "c", Status: CenterApproved}); err != nil {
		t.Fatalf("create center: %v", err)
	}

	var ids []uuid.UUID
	for _, name := range []string{"zed", "amy", "kai"} {
		d := &Doctor{ID: uuid.New(), CenterID: center, Name: name, Active: true}
		if err := repo.CreateDoctor(ctx, d); err != nil {
			t.Fatalf("create doctor: %v", err)
		}
		ids = append(ids, d.ID)
	}
	if _, err := repo.SetDoctorActive(ctx, ids[1], false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	doctors, err := repo.ListActiveDoctors(ctx, center)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(doctors) != 2 || doctors[0].ID != ids[0] || doctors[1].ID != ids[2] {
		t.Fatalf("unexpected order %+v", doctors)
	}
}

func TestMemRepository_UpdateProgramScheduleAdvancesTimestamp(t *testing.T) {
	repo := NewMemRepository()
	fixed := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	prog := &Program{ID: uuid.New(), Status: StatusConfirmed}
	if err := repo.CreateProgram(ctx, prog); err != nil {
		t.Fatalf("create: %v", err)
	}
	read, _ := repo.GetProgram(ctx, prog.ID)

	updated, err := repo.UpdateProgramSchedule(ctx, prog.ID, read.UpdatedAt, &read.Schedule)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(read.UpdatedAt) {
		t.Fatal("updated_at must advance even with a frozen clock")
	}
	if _, err := repo.UpdateProgramSchedule(ctx, prog.ID, read.UpdatedAt, &read.Schedule); !errors.Is(err, ErrStaleState) {
		t.Fatalf("second write with the old read must be stale, got %v", err)
	}
}
