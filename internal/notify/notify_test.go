package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type recorder struct {
	got []Message
	err error
}

func (r *recorder) Notify(_ context.Context, msg Message) error {
	r.got = append(r.got, msg)
	return r.err
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	err := n.Notify(context.Background(), Message{
		Recipient: "patient@example.com",
		Subject:   "Appointment Confirmed",
		Kind:      KindSession,
		Event:     "SESSION_CONFIRMED",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"recipient":"patient@example.com"`) || !strings.Contains(out, `"event":"SESSION_CONFIRMED"`) {
		t.Fatalf("unexpected log line %s", out)
	}

	if err := n.Notify(context.Background(), Message{}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	a := &recorder{}
	b := &recorder{err: boom}
	c := &recorder{}

	err := Multi{a, b, c}.Notify(context.Background(), Message{Recipient: "x@example.com"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined boom, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 || len(c.got) != 1 {
		t.Fatal("expected every notifier to receive the message")
	}
}
