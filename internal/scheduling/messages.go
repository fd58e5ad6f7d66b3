package scheduling

import (
	"fmt"
	"strings"

	"github.com/hackgods/therapy-center-scheduling/internal/notify"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

const portalSignature = "Best regards,\nPanchakarma Therapy Management Portal"

// parties holds the directory records a notification or view refers to.
// Any of them may be nil when the record no longer resolves.
type parties struct {
	patient *Patient
	center  *Center
	doctor  *Doctor
}

func (p parties) patientName() string {
	if p.patient == nil {
		return ""
	}
	return p.patient.Name
}

func (p parties) patientEmail() string {
	if p.patient == nil {
		return ""
	}
	return p.patient.Email
}

func (p parties) centerName() string {
	if p.center == nil {
		return ""
	}
	return p.center.Name
}

func (p parties) centerEmail() string {
	if p.center == nil {
		return ""
	}
	return p.center.Email
}

func (p parties) doctorName() string {
	if p.doctor == nil {
		return ""
	}
	return p.doctor.Name
}

func greeting(name string) string {
	if name == "" {
		name = "Patient"
	}
	return "Dear " + name + ",\n\n"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func sessionRequestedMessages(sess *Session, p parties) []notify.Message {
	details := fmt.Sprintf("Appointment ID: %s\nPatient: %s\nTherapy Type: %s\nDate: %s\nTime: %s\n",
		sess.ID, orDefault(p.patientName(), sess.PatientID.String()), sess.Therapy, plan.FormatDate(sess.Date), sess.TimeSlot)

	return []notify.Message{
		{
			Recipient: p.centerEmail(),
			Subject:   "New Appointment Request - Approval Required",
			Body:      "New appointment request received:\n\n" + details + "\nPlease log in to approve or reject this appointment.",
			Kind:      notify.KindSession,
			Event:     EventSessionCreated,
			RelatedID: sess.ID.String(),
		},
		{
			Recipient: p.patientEmail(),
			Subject:   "Appointment Request Received",
			Body: greeting(p.patientName()) +
				"We have received your appointment request. The centre will review it shortly.\n\n" +
				details + "\n" + portalSignature,
			Kind:      notify.KindSession,
			Event:     EventSessionCreated,
			RelatedID: sess.ID.String(),
		},
	}
}

func sessionConfirmedMessage(sess *Session, p parties) notify.Message {
	body := greeting(p.patientName()) +
		"Your appointment has been confirmed!\n\n" +
		fmt.Sprintf("Appointment Details:\n- Appointment ID: %s\n- Centre: %s\n- Date: %s\n- Time: %s\n- Therapy Type: %s\n- Assigned Doctor: %s\n\n",
			sess.ID, p.centerName(), plan.FormatDate(sess.Date), sess.TimeSlot, sess.Therapy, orDefault(p.doctorName(), "TBD")) +
		"Please arrive 15 minutes before your scheduled time.\n\n" + portalSignature

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Appointment Confirmed - Panchakarma Portal",
		Body:      body,
		Kind:      notify.KindSession,
		Event:     EventSessionConfirmed,
		RelatedID: sess.ID.String(),
	}
}

func sessionRejectedMessage(sess *Session, p parties) notify.Message {
	body := greeting(p.patientName()) +
		"We regret to inform you that your appointment request could not be confirmed for the selected date and time.\n\n" +
		fmt.Sprintf("Appointment ID: %s\nRequested Date: %s\nRequested Time: %s\n\n", sess.ID, plan.FormatDate(sess.Date), sess.TimeSlot) +
		"Please try booking for a different date or time slot.\n\n" + portalSignature

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Appointment Request - Update Required",
		Body:      body,
		Kind:      notify.KindSession,
		Event:     EventSessionRejected,
		RelatedID: sess.ID.String(),
	}
}

func doctorAssignedMessage(kind notify.Kind, event, relatedID string, p parties) notify.Message {
	specialization := ""
	if p.doctor != nil {
		specialization = p.doctor.Specialization
	}
	body := greeting(p.patientName()) +
		"A doctor has been assigned for your upcoming Panchakarma therapy.\n\n" +
		fmt.Sprintf("Doctor Details:\n- Name: Dr. %s\n- Specialization: %s\n\n", p.doctorName(), orDefault(specialization, "General")) +
		"The doctor will review your medical history and customize the treatment plan accordingly.\n\n" + portalSignature

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Doctor Assigned for Your Panchakarma Therapy",
		Body:      body,
		Kind:      kind,
		Event:     event,
		RelatedID: relatedID,
	}
}

func sessionCompletedMessage(sess *Session, p parties) notify.Message {
	var b strings.Builder
	b.WriteString(greeting(p.patientName()))
	b.WriteString("Your Panchakarma therapy session has been completed successfully!\n\n")
	writeReport(&b, sess.Report)
	b.WriteString("Please follow the instructions carefully for optimal results.\n\n")
	b.WriteString(portalSignature)

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Therapy Completed - Progress Report & Instructions",
		Body:      b.String(),
		Kind:      notify.KindSession,
		Event:     EventSessionCompleted,
		RelatedID: sess.ID.String(),
	}
}

func writeReport(b *strings.Builder, r *TherapyReport) {
	if r == nil {
		b.WriteString("Progress Report:\nNo report attached.\n\n")
		return
	}
	fmt.Fprintf(b, "Progress Report:\n%s\n\n", orDefault(r.Summary, "No notes recorded"))
	fmt.Fprintf(b, "Prescribed Medications:\n%s\n\n", orDefault(r.Medications, "None prescribed"))
	fmt.Fprintf(b, "Post-Therapy Instructions:\n%s\n\n", orDefault(r.Instructions, "Follow general Ayurvedic lifestyle practices"))
	fmt.Fprintf(b, "Next Session Recommendation:\n%s\n\n", orDefault(r.NextSessionDate, "No immediate follow-up required"))
}

func programRequestedMessages(prog *Program, p parties) []notify.Message {
	details := fmt.Sprintf("Program ID: %s\nPatient: %s\nPlan: %s\nStart Date: %s\nDuration: %d days\n",
		prog.ID, orDefault(p.patientName(), prog.PatientID.String()), prog.Schedule.Info.Name, plan.FormatDate(prog.StartDate), prog.Duration)

	return []notify.Message{
		{
			Recipient: p.centerEmail(),
			Subject:   "New Detox Program Request - Approval Required",
			Body:      "New detox program request received:\n\n" + details + "\nPlease assign a doctor and daily therapy time to approve it.",
			Kind:      notify.KindProgram,
			Event:     EventProgramCreated,
			RelatedID: prog.ID.String(),
		},
		{
			Recipient: p.patientEmail(),
			Subject:   "Detox Program Request Received",
			Body: greeting(p.patientName()) +
				"We have received your detox program request. The centre will assign a doctor shortly.\n\n" +
				details + "\n" + portalSignature,
			Kind:      notify.KindProgram,
			Event:     EventProgramCreated,
			RelatedID: prog.ID.String(),
		},
	}
}

func programConfirmedMessage(prog *Program, p parties) notify.Message {
	var b strings.Builder
	b.WriteString(greeting(p.patientName()))
	b.WriteString("Your Panchakarma therapy program has been confirmed!\n\n")
	fmt.Fprintf(&b, "Program Details:\n- Program ID: %s\n- Centre: %s\n- Plan: %s\n- Start Date: %s\n- End Date: %s\n- Daily Therapy Time: %s\n- Doctor: Dr. %s\n\n",
		prog.ID, p.centerName(), prog.Schedule.Info.Name, prog.Schedule.Info.StartDate, prog.Schedule.Info.EndDate, prog.TherapyTime, p.doctorName())
	if len(prog.Schedule.Info.Precautions) > 0 {
		b.WriteString("Pre-Procedure Precautions:\n")
		for i, pc := range prog.Schedule.Info.Precautions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, pc)
		}
		b.WriteString("\n")
	}
	b.WriteString("For any queries, please contact the centre directly.\n\n")
	b.WriteString(portalSignature)

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Panchakarma Therapy Appointment Confirmation",
		Body:      b.String(),
		Kind:      notify.KindProgram,
		Event:     EventProgramConfirmed,
		RelatedID: prog.ID.String(),
	}
}

func programRejectedMessage(prog *Program, p parties) notify.Message {
	body := greeting(p.patientName()) +
		"We regret to inform you that your detox program request could not be confirmed.\n\n" +
		fmt.Sprintf("Program ID: %s\nRequested Start Date: %s\n\n", prog.ID, plan.FormatDate(prog.StartDate)) +
		"Please try booking for a different start date.\n\n" + portalSignature

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Detox Program Request - Update Required",
		Body:      body,
		Kind:      notify.KindProgram,
		Event:     EventProgramRejected,
		RelatedID: prog.ID.String(),
	}
}

func programCompletedMessage(prog *Program, p parties, progress []DailyProgress) notify.Message {
	var b strings.Builder
	b.WriteString(greeting(p.patientName()))
	b.WriteString("Congratulations on completing your Panchakarma therapy!\n\n")
	fmt.Fprintf(&b, "Therapy Summary:\n- Plan: %s\n- Duration: %d days\n- Doctor: Dr. %s\n- Centre: %s\n\n",
		prog.Schedule.Info.Name, prog.Duration, p.doctorName(), p.centerName())

	var last *Vitals
	if len(progress) > 0 {
		b.WriteString("Treatment Progress:\n")
		for _, d := range progress {
			if d.AverageScore != nil {
				fmt.Fprintf(&b, "- Day %d: average score %.1f\n", d.Day, *d.AverageScore)
			}
			if d.LastVitals != nil {
				last = d.LastVitals
			}
		}
		b.WriteString("\n")
	}
	if last != nil {
		fmt.Fprintf(&b, "Final Vitals:\n- Blood Pressure: %d/%d\n- Blood Sugar: %.1f\n\n", last.BPSystolic, last.BPDiastolic, last.BloodSugar)
	}
	writeReport(&b, prog.Report)
	b.WriteString("Thank you for choosing our Panchakarma therapy services.\n\n")
	b.WriteString(portalSignature)

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   "Panchakarma Therapy Completion Summary",
		Body:      b.String(),
		Kind:      notify.KindProgram,
		Event:     EventProgramCompleted,
		RelatedID: prog.ID.String(),
	}
}

func dailyReminderMessage(prog *Program, day *plan.Day, p parties) notify.Message {
	var b strings.Builder
	b.WriteString(greeting(p.patientName()))
	fmt.Fprintf(&b, "This is your reminder for Day %d of %d of your %s program (%s).\n\n",
		day.Number, prog.Duration, prog.Schedule.Info.Name, day.Date)
	b.WriteString("Today's Schedule:\n")
	for _, info := range plan.Catalogue {
		e, ok := day.Slots[info.Key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Time, e.Activity)
		if e.Notes != "" {
			fmt.Fprintf(&b, "  Note: %s\n", e.Notes)
		}
	}
	if p.doctorName() != "" {
		fmt.Fprintf(&b, "\nYour therapy with Dr. %s is at %s.\n", p.doctorName(), prog.TherapyTime)
	}
	b.WriteString("\n" + portalSignature)

	return notify.Message{
		Recipient: p.patientEmail(),
		Subject:   fmt.Sprintf("Daily Therapy Reminder - Day %d", day.Number),
		Body:      b.String(),
		Kind:      notify.KindProgram,
		Event:     EventProgramReminder,
		RelatedID: prog.ID.String(),
	}
}
