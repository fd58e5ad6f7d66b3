package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

func createProgramHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProgramRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		patientID, ok := parseUUIDField(w, "patient_id", req.PatientID)
		if !ok {
			return
		}
		centerID, ok := parseUUIDField(w, "center_id", req.CenterID)
		if !ok {
			return
		}
		start, ok := parseDateField(w, "start_date", req.StartDate)
		if !ok {
			return
		}

		prog, err := svc.CreateProgram(r.Context(), scheduling.ProgramRequest{
			PatientID:  patientID,
			CenterID:   centerID,
			TemplateID: req.TemplateID,
			StartDate:  start,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusCreated)
	}
}

func listProgramsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f scheduling.ProgramFilter
		var ok bool
		if f.PatientID, ok = queryUUID(w, r, "patient_id"); !ok {
			return
		}
		if f.CenterID, ok = queryUUID(w, r, "center_id"); !ok {
			return
		}
		if f.DoctorID, ok = queryUUID(w, r, "doctor_id"); !ok {
			return
		}
		if f.Status, ok = queryStatus(w, r); !ok {
			return
		}
		if f.Limit, ok = queryInt(w, r, "limit"); !ok {
			return
		}
		if f.Offset, ok = queryInt(w, r, "offset"); !ok {
			return
		}

		views, err := svc.ListPrograms(r.Context(), f)
		if err != nil {
			handleError(w, r, err)
			return
		}
		out := make([]ProgramResponse, 0, len(views))
		for _, v := range views {
			out = append(out, toProgramResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProgramHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		view, err := svc.GetProgram(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toProgramResponse(*view))
	}
}

type bindFunc func(ctx context.Context, id, doctorID uuid.UUID, timeSlot string) (*scheduling.Program, error)

// bindProgramHandler serves both approve and reassign, which take the same
// doctor and time slot body.
func bindProgramHandler(svc *scheduling.Service, bind bindFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req BindProgramRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doctorID, ok := parseUUIDField(w, "doctor_id", req.DoctorID)
		if !ok {
			return
		}
		prog, err := bind(r.Context(), id, doctorID, req.TimeSlot)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusOK)
	}
}

func rejectProgramHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req RejectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		prog, err := svc.RejectProgram(r.Context(), id, req.Reason)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusOK)
	}
}

func startProgramHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		prog, err := svc.StartProgram(r.Context(), id, actor)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusOK)
	}
}

func completeProgramHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		var req CompleteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		prog, err := svc.CompleteProgram(r.Context(), id, actor, req.Report.toReport())
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusOK)
	}
}

func updateSlotHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		day, err := strconv.Atoi(chi.URLParam(r, "day"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", "day must be an integer")
			return
		}
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		var req UpdateSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		upd := scheduling.SlotUpdate{
			ProgramID: id,
			Day:       day,
			Slot:      plan.SlotKey(chi.URLParam(r, "slot")),
			Activity:  req.Activity,
			Notes:     req.Notes,
			Actor:     actor,
		}
		if req.Status != nil {
			st := plan.SlotStatus(*req.Status)
			upd.Status = &st
		}

		prog, err := svc.UpdateProgramSlot(r.Context(), upd)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondProgram(w, r, svc, prog, http.StatusOK)
	}
}

func recordProgressHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		var req RecordProgressRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		entry, err := svc.RecordProgress(r.Context(), scheduling.ProgressRequest{
			ProgramID: id,
			Actor:     actor,
			Day:       req.Day,
			Score:     req.Score,
			Vitals:    req.Vitals,
			Notes:     req.Notes,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProgressEntryResponse(*entry))
	}
}

func progressSummaryHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		days, err := svc.ProgressSummary(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		out := make([]DailyProgressResponse, 0, len(days))
		for _, d := range days {
			dp := DailyProgressResponse{
				Day:          d.Day,
				Date:         d.Date,
				AverageScore: d.AverageScore,
				LastVitals:   d.LastVitals,
				Entries:      make([]ProgressEntryResponse, 0, len(d.Entries)),
			}
			for _, e := range d.Entries {
				dp.Entries = append(dp.Entries, toProgressEntryResponse(e))
			}
			out = append(out, dp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func respondProgram(w http.ResponseWriter, r *http.Request, svc *scheduling.Service, prog *scheduling.Program, status int) {
	view, err := svc.GetProgram(r.Context(), prog.ID)
	if err != nil {
		writeJSON(w, status, toProgramResponse(scheduling.ProgramView{Program: *prog}))
		return
	}
	writeJSON(w, status, toProgramResponse(*view))
}
