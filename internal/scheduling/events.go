package scheduling

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const (
	EventSessionCreated    = "SESSION_CREATED"
	EventSessionConfirmed  = "SESSION_CONFIRMED"
	EventSessionRejected   = "SESSION_REJECTED"
	EventSessionReassigned = "SESSION_REASSIGNED"
	EventSessionStarted    = "SESSION_STARTED"
	EventSessionCompleted  = "SESSION_COMPLETED"

	EventProgramCreated     = "PROGRAM_CREATED"
	EventProgramConfirmed   = "PROGRAM_CONFIRMED"
	EventProgramRejected    = "PROGRAM_REJECTED"
	EventProgramReassigned  = "PROGRAM_REASSIGNED"
	EventProgramStarted     = "PROGRAM_STARTED"
	EventProgramCompleted   = "PROGRAM_COMPLETED"
	EventProgramSlotUpdated = "PROGRAM_SLOT_UPDATED"
	EventProgressRecorded   = "PROGRESS_RECORDED"
	EventProgramReminder    = "PROGRAM_REMINDER"
)

// logEvent appends to the audit log. Failures are logged and swallowed; the
// operation that produced the event has already committed.
func (s *Service) logEvent(ctx context.Context, kind OwnerKind, subjectID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	id := subjectID
	ev := EventLog{
		EventType:   eventType,
		SubjectKind: kind,
		SubjectID:   &id,
		Payload:     data,
		CreatedAt:   s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).
			Str("event", eventType).
			Str("subject_id", subjectID.String()).
			Msg("insert event log")
	}
}
