package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/therapy-center-scheduling/internal/plan"
	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

func createCenterHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCenterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := svc.CreateCenter(r.Context(), scheduling.CenterRequest{Name: req.Name, Email: req.Email, Phone: req.Phone})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCenterResponse(c))
	}
}

func approveCenterHandler(svc *scheduling.Service) http.HandlerFunc {
	return centerStatusHandler(svc.ApproveCenter)
}

func suspendCenterHandler(svc *scheduling.Service) http.HandlerFunc {
	return centerStatusHandler(svc.SuspendCenter)
}

func centerStatusHandler(set func(ctx context.Context, id uuid.UUID) (*scheduling.Center, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		c, err := set(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toCenterResponse(c))
	}
}

func centerAvailabilityHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		date, ok := parseDateField(w, "date", r.URL.Query().Get("date"))
		if !ok {
			return
		}
		avail, err := svc.CenterAvailability(r.Context(), id, date)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := CenterAvailabilityResponse{
			CenterID: id,
			Date:     plan.FormatDate(date),
			Doctors:  make([]DoctorAvailabilityResponse, 0, len(avail)),
		}
		for _, a := range avail {
			resp.Doctors = append(resp.Doctors, DoctorAvailabilityResponse{DoctorID: a.DoctorID, DoctorName: a.DoctorName, Slots: a.Slots})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createDoctorHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		centerID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req CreateDoctorRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		days := make([]time.Weekday, 0, len(req.WorkingDays))
		for _, raw := range req.WorkingDays {
			d, ok := plan.ParseWeekday(raw)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid_working_day", fmt.Sprintf("unknown weekday %q", raw))
				return
			}
			days = append(days, d)
		}

		d, err := svc.CreateDoctor(r.Context(), scheduling.DoctorRequest{
			CenterID:       centerID,
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Specialization: req.Specialization,
			Slots:          req.Slots,
			WorkingDays:    days,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func deactivateDoctorHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		d, err := svc.DeactivateDoctor(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	}
}

func doctorAvailabilityHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		date, ok := parseDateField(w, "date", r.URL.Query().Get("date"))
		if !ok {
			return
		}
		slots, err := svc.FreeSlots(r.Context(), id, date)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, FreeSlotsResponse{DoctorID: id, Date: plan.FormatDate(date), Slots: slots})
	}
}

func createPatientHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.CreatePatient(r.Context(), scheduling.PatientRequest{Name: req.Name, Email: req.Email, Phone: req.Phone})
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listTemplatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpls := plan.Templates()
		out := make([]TemplateResponse, 0, len(tpls))
		for _, t := range tpls {
			out = append(out, TemplateResponse{
				ID:          t.ID,
				Name:        t.Name,
				Type:        t.Type,
				Duration:    t.Duration,
				Precautions: t.Precautions,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// previewPlanHandler generates a schedule without persisting anything.
func previewPlanHandler(defaultTherapyTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, ok := parseDateField(w, "start_date", r.URL.Query().Get("start_date"))
		if !ok {
			return
		}
		therapyTime := r.URL.Query().Get("therapy_time")
		if therapyTime == "" {
			therapyTime = defaultTherapyTime
		}
		schedule, err := plan.Generate(chi.URLParam(r, "id"), start, therapyTime)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, schedule)
	}
}
