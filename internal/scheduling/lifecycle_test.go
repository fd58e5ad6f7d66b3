package scheduling

import (
	"errors"
	"testing"
)

var allStatuses = []Status{
	StatusPendingApproval,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
}

func TestTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPendingApproval, StatusConfirmed}: true,
		{StatusPendingApproval, StatusRejected}:  true,
		{StatusConfirmed, StatusInProgress}:      true,
		{StatusInProgress, StatusCompleted}:      true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := Transition(from, to)
			if allowed[[2]Status{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s: unexpected error %v", from, to, err)
				}
				continue
			}
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) || invalid.From != from || invalid.To != to {
				t.Errorf("%s -> %s: expected InvalidTransitionError, got %v", from, to, err)
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: error does not match ErrInvalidTransition", from, to)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range allStatuses {
		hasEdges := len(transitions[s]) > 0
		if s.Terminal() == hasEdges {
			t.Errorf("%s: Terminal()=%v but has outgoing edges=%v", s, s.Terminal(), hasEdges)
		}
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("cancelled").Valid() {
		t.Error("unknown status reported valid")
	}
}
