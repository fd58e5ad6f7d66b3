package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

// ActorHeader carries the caller's identity, asserted by the upstream
// identity layer.
const ActorHeader = "X-Actor-ID"

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// decodeJSON reads a single JSON object from the request body. An empty body
// decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON: "+err.Error())
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDField(w http.ResponseWriter, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDateField(w http.ResponseWriter, field, raw string) (time.Time, bool) {
	d, err := plan.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+field, field+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func actorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing_actor", ActorHeader+" header is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_actor", ActorHeader+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID returns nil when the parameter is absent.
func queryUUID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, ok := parseUUIDField(w, name, raw)
	if !ok {
		return nil, false
	}
	return &id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func queryStatus(w http.ResponseWriter, r *http.Request) (*scheduling.Status, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	st := scheduling.Status(raw)
	if !st.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status %q", raw))
		return nil, false
	}
	return &st, true
}

// handleError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without internal details.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict    *scheduling.SlotConflictError
		unavailable *scheduling.DoctorUnavailableError
		transition  *scheduling.InvalidTransitionError
	)

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "slot_conflict",
			Details:  err.Error(),
			Date:     conflict.Date,
			TimeSlot: conflict.TimeSlot,
			Day:      conflict.Day,
		})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "doctor_unavailable",
			Details: err.Error(),
			Weekday: unavailable.Weekday,
			Day:     unavailable.Day,
		})
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())

	case errors.Is(err, scheduling.ErrCenterNotFound):
		writeError(w, http.StatusNotFound, "center_not_found", err.Error())
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, scheduling.ErrProgramNotFound):
		writeError(w, http.StatusNotFound, "program_not_found", err.Error())
	case errors.Is(err, scheduling.ErrUnknownTemplate):
		writeError(w, http.StatusNotFound, "template_not_found", err.Error())
	case errors.Is(err, scheduling.ErrDayNotFound):
		writeError(w, http.StatusNotFound, "day_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())

	case errors.Is(err, scheduling.ErrDoctorBusy):
		writeError(w, http.StatusConflict, "doctor_busy", err.Error())
	case errors.Is(err, scheduling.ErrStaleState):
		writeError(w, http.StatusConflict, "stale_state", err.Error())
	case errors.Is(err, scheduling.ErrCenterNotApproved):
		writeError(w, http.StatusConflict, "center_not_approved", err.Error())
	case errors.Is(err, scheduling.ErrNoDoctors):
		writeError(w, http.StatusConflict, "no_doctors", err.Error())
	case errors.Is(err, scheduling.ErrNoAvailability):
		writeError(w, http.StatusConflict, "no_availability", err.Error())
	case errors.Is(err, scheduling.ErrDoctorInactive):
		writeError(w, http.StatusConflict, "doctor_inactive", err.Error())
	case errors.Is(err, scheduling.ErrProgramNotActive):
		writeError(w, http.StatusConflict, "program_not_active", err.Error())
	case errors.Is(err, scheduling.ErrNoDoctorAssigned):
		writeError(w, http.StatusConflict, "no_doctor_assigned", err.Error())
	case errors.Is(err, scheduling.ErrInvalidCenterState):
		writeError(w, http.StatusConflict, "invalid_center_state", err.Error())

	case errors.Is(err, scheduling.ErrNotAssignedDoctor):
		writeError(w, http.StatusForbidden, "not_assigned_doctor", err.Error())

	case errors.Is(err, scheduling.ErrDoctorNotAtCenter):
		writeError(w, http.StatusUnprocessableEntity, "doctor_not_at_center", err.Error())
	case errors.Is(err, scheduling.ErrSlotNotOffered):
		writeError(w, http.StatusUnprocessableEntity, "slot_not_offered", err.Error())
	case errors.Is(err, scheduling.ErrDayOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, "day_out_of_range", err.Error())
	case errors.Is(err, scheduling.ErrInvalidScore):
		writeError(w, http.StatusUnprocessableEntity, "invalid_score", err.Error())
	case errors.Is(err, scheduling.ErrEmptyProgress):
		writeError(w, http.StatusUnprocessableEntity, "empty_progress", err.Error())

	case errors.Is(err, scheduling.ErrMissingField):
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, scheduling.ErrNothingToUpdate):
		writeError(w, http.StatusBadRequest, "nothing_to_update", err.Error())
	case errors.Is(err, scheduling.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTimeSlot):
		writeError(w, http.StatusBadRequest, "invalid_time_slot", err.Error())
	case errors.Is(err, scheduling.ErrInvalidSlotStatus):
		writeError(w, http.StatusBadRequest, "invalid_slot_status", err.Error())

	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
