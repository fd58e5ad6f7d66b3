package scheduling

var transitions = map[Status][]Status{
	StatusPendingApproval: {StatusConfirmed, StatusRejected},
	StatusConfirmed:       {StatusInProgress},
	StatusInProgress:      {StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusConfirmed, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Reassignable reports whether doctor/slot may still change.
func (s Status) Reassignable() bool {
	return s == StatusPendingApproval || s == StatusConfirmed
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns an *InvalidTransitionError unless from -> to is an edge
// of the lifecycle graph.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
