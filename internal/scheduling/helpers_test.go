package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	redisclient "github.com/hackgods/therapy-center-scheduling/internal/redis"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.msgs))
	for i, m := range n.msgs {
		out[i] = m.Event
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.msgs = nil
	n.mu.Unlock()
}

type fixture struct {
	svc     *Service
	repo    *MemRepository
	sent    *recordingNotifier
	center  *Center
	patient *Patient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith lets wrap decorate the memory repository the service sees.
func newFixtureWith(t *testing.T, wrap func(*MemRepository) Repository) *fixture {
	t.Helper()

	mem := NewMemRepository()
	var repo Repository = mem
	if wrap != nil {
		repo = wrap(mem)
	}
	sent := &recordingNotifier{}
	cfg := config.Config{DefaultTherapyTime: "10:00-11:00"}
	svc := NewService(repo, redisclient.NewLocalLocker(redisclient.RetryPolicy{Attempts: 1}), sent, cfg, zerolog.Nop())

	f := &fixture{svc: svc, repo: mem, sent: sent}
	f.center = f.approvedCenter(t, "Shanti Ayurveda")

	p, err := svc.CreatePatient(context.Background(), PatientRequest{Name: "Asha Rao", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	f.patient = p
	return f
}

func (f *fixture) approvedCenter(t *testing.T, name string) *Center {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.CreateCenter(ctx, CenterRequest{Name: name, Email: "desk@example.com"})
	if err != nil {
		t.Fatalf("create center: %v", err)
	}
	if c, err = f.svc.ApproveCenter(ctx, c.ID); err != nil {
		t.Fatalf("approve center: %v", err)
	}
	return c
}

// doctor adds a doctor to the fixture center. No days means the defaults.
func (f *fixture) doctor(t *testing.T, name string, slots []string, days ...time.Weekday) *Doctor {
	t.Helper()
	return f.doctorAt(t, f.center.ID, name, slots, days...)
}

func (f *fixture) doctorAt(t *testing.T, centerID uuid.UUID, name string, slots []string, days ...time.Weekday) *Doctor {
	t.Helper()
	d, err := f.svc.CreateDoctor(context.Background(), DoctorRequest{
		CenterID:    centerID,
		Name:        name,
		Email:       name + "@example.com",
		Slots:       slots,
		WorkingDays: days,
	})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	return d
}

func (f *fixture) session(t *testing.T, date string) *Session {
	t.Helper()
	s, err := f.svc.CreateSession(context.Background(), SessionRequest{
		PatientID: f.patient.ID,
		CenterID:  f.center.ID,
		Therapy:   "Abhyanga",
		Date:      mustDate(t, date),
	})
	if err != nil {
		t.Fatalf("create session on %s: %v", date, err)
	}
	return s
}

func (f *fixture) program(t *testing.T, template, start string) *Program {
	t.Helper()
	p, err := f.svc.CreateProgram(context.Background(), ProgramRequest{
		PatientID:  f.patient.ID,
		CenterID:   f.center.ID,
		TemplateID: template,
		StartDate:  mustDate(t, start),
	})
	if err != nil {
		t.Fatalf("create program from %s: %v", start, err)
	}
	return p
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := plan.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

// staleReads hides every reservation from readers, as if the validation read
// raced a concurrent commit. Writes still hit the real booked-slot set.
type staleReads struct {
	*MemRepository
}

func (staleReads) ListReservations(context.Context, uuid.UUID, time.Time, time.Time) ([]Reservation, error) {
	return nil, nil
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
