package scheduling

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
)

// 2025-03-04 is a Tuesday.
const tuesday = "2025-03-04"

func TestFreeSlots_SubsetDisjointFromBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "kiran", nil)

	first := f.session(t, tuesday)
	second := f.session(t, tuesday)

	free, err := f.svc.FreeSlots(ctx, d.ID, mustDate(t, tuesday))
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	for _, slot := range free {
		if !d.Offers(slot) {
			t.Errorf("free slot %s is not in the catalogue", slot)
		}
		if slot == first.TimeSlot || slot == second.TimeSlot {
			t.Errorf("free slot %s is booked", slot)
		}
	}
	if len(free) != len(d.Slots)-2 {
		t.Fatalf("expected %d free slots, got %v", len(d.Slots)-2, free)
	}

	// Other dates are untouched.
	other, err := f.svc.FreeSlots(ctx, d.ID, mustDate(t, "2025-03-05"))
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if !reflect.DeepEqual(other, d.Slots) {
		t.Fatalf("expected full catalogue on another date, got %v", other)
	}
}

func TestFreeSlots_UnknownDoctorIsEmpty(t *testing.T) {
	f := newFixture(t)
	free, err := f.svc.FreeSlots(context.Background(), uuid.New(), mustDate(t, tuesday))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if free == nil || len(free) != 0 {
		t.Fatalf("expected empty slice, got %#v", free)
	}
}

func TestCreateSession_FirstFit(t *testing.T) {
	f := newFixture(t)
	// Creation order decides: the first doctor does not work Tuesdays.
	mwf := f.doctor(t, "meera", nil, time.Monday, time.Wednesday, time.Friday)
	a := f.doctor(t, "arjun", []string{"09:00-10:00", "10:00-11:00"})
	b := f.doctor(t, "bela", nil)

	want := []struct {
		doctor uuid.UUID
		slot   string
	}{
		{a.ID, "09:00-10:00"},
		{a.ID, "10:00-11:00"},
		{b.ID, "09:00-10:00"},
	}
	for i, w := range want {
		s := f.session(t, tuesday)
		if s.DoctorID == nil || *s.DoctorID != w.doctor || s.TimeSlot != w.slot {
			t.Fatalf("booking %d: got doctor %v slot %s, want %s %s", i, s.DoctorID, s.TimeSlot, w.doctor, w.slot)
		}
		if *s.DoctorID == mwf.ID {
			t.Fatalf("booking %d went to a doctor who does not work tuesdays", i)
		}
		if s.Status != StatusPendingApproval {
			t.Fatalf("booking %d: expected pending_approval, got %s", i, s.Status)
		}
	}

	// On Wednesday the first doctor is eligible again.
	s := f.session(t, "2025-03-05")
	if *s.DoctorID != mwf.ID || s.TimeSlot != "09:00-10:00" {
		t.Fatalf("expected first doctor first slot on wednesday, got %v %s", s.DoctorID, s.TimeSlot)
	}
}

func TestCreateSession_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("center not approved", func(t *testing.T) {
		f := newFixture(t)
		pending, err := f.svc.CreateCenter(ctx, CenterRequest{Name: "New Centre"})
		if err != nil {
			t.Fatalf("create center: %v", err)
		}
		f.doctorAt(t, pending.ID, "ravi", nil)
		_, err = f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: pending.ID, Therapy: "Shirodhara", Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrCenterNotApproved) {
			t.Fatalf("expected ErrCenterNotApproved, got %v", err)
		}
	})

	t.Run("no doctors", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: f.center.ID, Therapy: "Shirodhara", Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrNoDoctors) {
			t.Fatalf("expected ErrNoDoctors, got %v", err)
		}
	})

	t.Run("deactivated doctors do not count", func(t *testing.T) {
		f := newFixture(t)
		d := f.doctor(t, "ravi", nil)
		if _, err := f.svc.DeactivateDoctor(ctx, d.ID); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: f.center.ID, Therapy: "Shirodhara", Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrNoDoctors) {
			t.Fatalf("expected ErrNoDoctors, got %v", err)
		}
	})

	t.Run("no availability", func(t *testing.T) {
		f := newFixture(t)
		f.doctor(t, "ravi", []string{"09:00-10:00"})
		f.doctor(t, "sita", nil, time.Monday)
		f.session(t, tuesday)
		_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: f.center.ID, Therapy: "Shirodhara", Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrNoAvailability) {
			t.Fatalf("expected ErrNoAvailability, got %v", err)
		}
	})

	t.Run("unknown patient", func(t *testing.T) {
		f := newFixture(t)
		f.doctor(t, "ravi", nil)
		_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: uuid.New(), CenterID: f.center.ID, Therapy: "Shirodhara", Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrPatientNotFound) {
			t.Fatalf("expected ErrPatientNotFound, got %v", err)
		}
	})

	t.Run("missing therapy", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: f.center.ID, Date: mustDate(t, tuesday)})
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("expected ErrMissingField, got %v", err)
		}
	})
}

func TestCreateSession_ContinuesPastSlotLostToRace(t *testing.T) {
	f := newFixtureWith(t, func(m *MemRepository) Repository { return staleReads{m} })
	ctx := context.Background()
	d := f.doctor(t, "arjun", []string{"09:00-10:00", "10:00-11:00"})

	first := f.session(t, tuesday)
	if first.TimeSlot != "09:00-10:00" {
		t.Fatalf("expected first slot, got %s", first.TimeSlot)
	}

	// The resolver now sees every slot as free; the commit must still refuse
	// 09:00 and fall through to 10:00.
	second := f.session(t, tuesday)
	if second.TimeSlot != "10:00-11:00" {
		t.Fatalf("expected fallback to second slot, got %s", second.TimeSlot)
	}

	_, err := f.svc.CreateSession(ctx, SessionRequest{PatientID: f.patient.ID, CenterID: f.center.ID, Therapy: "Vamana", Date: mustDate(t, tuesday)})
	if !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability once both slots are committed, got %v", err)
	}

	booked, _ := f.repo.ListReservations(ctx, d.ID, mustDate(t, tuesday), mustDate(t, tuesday))
	if len(booked) != 2 {
		t.Fatalf("expected exactly 2 reservations, got %d", len(booked))
	}
}

func TestCreateSession_DoctorBusy(t *testing.T) {
	repo := NewMemRepository()
	svc := NewService(repo, busyLocker{}, nil, config.Config{DefaultTherapyTime: "10:00-11:00"}, zerolog.Nop())
	ctx := context.Background()

	c, _ := svc.CreateCenter(ctx, CenterRequest{Name: "Busy"})
	_, _ = svc.ApproveCenter(ctx, c.ID)
	_, _ = svc.CreateDoctor(ctx, DoctorRequest{CenterID: c.ID, Name: "ravi"})
	p, _ := svc.CreatePatient(ctx, PatientRequest{Name: "pat"})

	_, err := svc.CreateSession(ctx, SessionRequest{PatientID: p.ID, CenterID: c.ID, Therapy: "Basti", Date: mustDate(t, tuesday)})
	if !errors.Is(err, ErrDoctorBusy) {
		t.Fatalf("expected ErrDoctorBusy, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "arjun", nil)
	s := f.session(t, tuesday)

	if got := f.sent.events(); !reflect.DeepEqual(got, []string{EventSessionCreated, EventSessionCreated}) {
		t.Fatalf("expected center and patient notices on creation, got %v", got)
	}

	if _, err := f.svc.StartSession(ctx, s.ID, d.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition starting a pending session, got %v", err)
	}

	confirmed, err := f.svc.ApproveSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if confirmed.Status != StatusConfirmed || !confirmed.CreatedAt.Equal(s.CreatedAt) {
		t.Fatalf("unexpected confirmed session %+v", confirmed)
	}
	if confirmed.UpdatedAt.Before(s.UpdatedAt) {
		t.Fatal("updated_at went backwards")
	}

	if _, err := f.svc.StartSession(ctx, s.ID, uuid.New()); !errors.Is(err, ErrNotAssignedDoctor) {
		t.Fatalf("expected ErrNotAssignedDoctor, got %v", err)
	}
	if _, err := f.svc.StartSession(ctx, s.ID, d.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	done, err := f.svc.CompleteSession(ctx, s.ID, d.ID, &TherapyReport{Summary: "Tolerated well", Medications: "Triphala"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.Report == nil || done.Report.CompletedAt.IsZero() {
		t.Fatalf("unexpected completed session %+v", done)
	}

	if _, err := f.svc.RejectSession(ctx, s.ID, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from a terminal state, got %v", err)
	}

	// Completed sessions keep occupying their slot.
	free, _ := f.svc.FreeSlots(ctx, d.ID, mustDate(t, tuesday))
	if contains(free, s.TimeSlot) {
		t.Fatalf("completed session slot %s reported free", s.TimeSlot)
	}

	events := f.repo.Events()
	var types []string
	for _, ev := range events {
		types = append(types, ev.EventType)
	}
	want := []string{EventSessionCreated, EventSessionConfirmed, EventSessionStarted, EventSessionCompleted}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("event log = %v, want %v", types, want)
	}
}

func TestRejectSession_ReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "arjun", nil)
	s := f.session(t, tuesday)

	rejected, err := f.svc.RejectSession(ctx, s.ID, "fully booked")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}

	free, _ := f.svc.FreeSlots(ctx, d.ID, mustDate(t, tuesday))
	if !contains(free, s.TimeSlot) {
		t.Fatalf("expected %s to be free again, got %v", s.TimeSlot, free)
	}
	if _, err := f.svc.ApproveSession(ctx, s.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition approving a rejected session, got %v", err)
	}
}

func TestAssignSessionDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.doctor(t, "arjun", nil)
	b := f.doctor(t, "bela", []string{"14:00-15:00", "15:00-16:00"})
	s := f.session(t, tuesday)

	other := f.approvedCenter(t, "Elsewhere")
	stranger := f.doctorAt(t, other.ID, "zoya", nil)
	if _, err := f.svc.AssignSessionDoctor(ctx, s.ID, stranger.ID); !errors.Is(err, ErrDoctorNotAtCenter) {
		t.Fatalf("expected ErrDoctorNotAtCenter, got %v", err)
	}

	mondays := f.doctor(t, "mona", nil, time.Monday)
	var unavailable *DoctorUnavailableError
	if _, err := f.svc.AssignSessionDoctor(ctx, s.ID, mondays.ID); !errors.As(err, &unavailable) || unavailable.Weekday != "tuesday" {
		t.Fatalf("expected DoctorUnavailableError for tuesday, got %v", err)
	}

	f.sent.reset()
	moved, err := f.svc.AssignSessionDoctor(ctx, s.ID, b.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if moved.Status != StatusConfirmed || *moved.DoctorID != b.ID || moved.TimeSlot != "14:00-15:00" {
		t.Fatalf("unexpected assignment %+v", moved)
	}
	if got := f.sent.events(); len(got) != 2 || got[0] != EventSessionReassigned {
		t.Fatalf("expected assignment and confirmation notices, got %v", got)
	}

	freeA, _ := f.svc.FreeSlots(ctx, a.ID, mustDate(t, tuesday))
	if !contains(freeA, s.TimeSlot) {
		t.Fatalf("old slot %s on first doctor should be released", s.TimeSlot)
	}
	freeB, _ := f.svc.FreeSlots(ctx, b.ID, mustDate(t, tuesday))
	if contains(freeB, "14:00-15:00") {
		t.Fatal("new slot should be reserved")
	}

	// Reassigning to the same doctor keeps the record's own slot available.
	again, err := f.svc.AssignSessionDoctor(ctx, s.ID, b.ID)
	if err != nil {
		t.Fatalf("reassign same doctor: %v", err)
	}
	if again.TimeSlot != "14:00-15:00" {
		t.Fatalf("expected to keep 14:00-15:00, got %s", again.TimeSlot)
	}

	if _, err := f.svc.DeactivateDoctor(ctx, a.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.AssignSessionDoctor(ctx, s.ID, a.ID); !errors.Is(err, ErrDoctorInactive) {
		t.Fatalf("expected ErrDoctorInactive, got %v", err)
	}

	if _, err := f.svc.StartSession(ctx, s.ID, b.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.AssignSessionDoctor(ctx, s.ID, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition once in progress, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.sent.err = errors.New("smtp down")
	f.doctor(t, "arjun", nil)

	s := f.session(t, tuesday)
	if _, err := f.svc.ApproveSession(context.Background(), s.ID); err != nil {
		t.Fatalf("approve with failing notifier: %v", err)
	}
}

func TestListSessions_ResolvesNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "arjun", nil)
	f.session(t, "2025-03-05")
	f.session(t, tuesday)

	views, err := f.svc.ListSessions(ctx, SessionFilter{PatientID: &f.patient.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(views))
	}
	if views[0].Date.After(views[1].Date) {
		t.Fatal("expected sessions sorted by date")
	}
	for _, v := range views {
		if v.PatientName != "Asha Rao" || v.DoctorName != d.Name || v.CenterName != f.center.Name {
			t.Fatalf("unexpected names %q %q %q", v.PatientName, v.DoctorName, v.CenterName)
		}
	}

	status := StatusConfirmed
	none, err := f.svc.ListSessions(ctx, SessionFilter{Status: &status})
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no confirmed sessions, got %d (%v)", len(none), err)
	}

	if _, err := f.svc.GetSession(ctx, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
