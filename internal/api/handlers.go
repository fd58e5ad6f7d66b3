package api

import (
	"net/http"

	"github.com/hackgods/therapy-center-scheduling/internal/scheduling"
)

func createSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
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
		date, ok := parseDateField(w, "date", req.Date)
		if !ok {
			return
		}

		sess, err := svc.CreateSession(r.Context(), scheduling.SessionRequest{
			PatientID: patientID,
			CenterID:  centerID,
			Therapy:   req.Therapy,
			Date:      date,
			Notes:     req.Notes,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusCreated)
	}
}

func listSessionsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f scheduling.SessionFilter
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

		views, err := svc.ListSessions(r.Context(), f)
		if err != nil {
			handleError(w, r, err)
			return
		}
		out := make([]SessionResponse, 0, len(views))
		for _, v := range views {
			out = append(out, toSessionResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		view, err := svc.GetSession(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(*view))
	}
}

func approveSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		sess, err := svc.ApproveSession(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusOK)
	}
}

func rejectSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req RejectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		sess, err := svc.RejectSession(r.Context(), id, req.Reason)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusOK)
	}
}

func assignSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req AssignDoctorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		doctorID, ok := parseUUIDField(w, "doctor_id", req.DoctorID)
		if !ok {
			return
		}
		sess, err := svc.AssignSessionDoctor(r.Context(), id, doctorID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusOK)
	}
}

func startSessionHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		sess, err := svc.StartSession(r.Context(), id, actor)
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusOK)
	}
}

func completeSessionHandler(svc *scheduling.Service) http.HandlerFunc {
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
		sess, err := svc.CompleteSession(r.Context(), id, actor, req.Report.toReport())
		if err != nil {
			handleError(w, r, err)
			return
		}
		respondSession(w, r, svc, sess, http.StatusOK)
	}
}

// respondSession re-reads the session as a view so the response carries
// display names.
func respondSession(w http.ResponseWriter, r *http.Request, svc *scheduling.Service, sess *scheduling.Session, status int) {
	view, err := svc.GetSession(r.Context(), sess.ID)
	if err != nil {
		writeJSON(w, status, toSessionResponse(scheduling.SessionView{Session: *sess}))
		return
	}
	writeJSON(w, status, toSessionResponse(*view))
}
