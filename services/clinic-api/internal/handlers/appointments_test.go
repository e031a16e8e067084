package handlers

import (
	"net/http"
	"testing"

	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

func seedClinic(t *testing.T, env *testEnv) (patientTok, doctorTok string, patient, doctor *model.User) {
	t.Helper()
	patient, patientTok = env.addUser(t, "Jane Doe", "jane@example.com", model.RolePatient, nil)
	doctor, doctorTok = env.addUser(t, "Gregory House", "house@example.com", model.RoleDoctor, func(u *model.User) {
		u.Doctor = &model.DoctorProfile{
			Specialization: "Diagnostics",
			Availability: []model.AvailabilityWindow{
				{Day: "Tuesday", StartTime: "09:00", EndTime: "12:00"},
			},
		}
	})
	return patientTok, doctorTok, patient, doctor
}

func bookingPayload(doctorID string) map[string]any {
	return map[string]any{
		"doctorId":  doctorID,
		"date":      "2026-09-01", // a Tuesday
		"startTime": "09:00",
		"endTime":   "09:30",
		"reason":    "Persistent headache",
	}
}

func TestCreateAppointment(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, patient, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Appointment created successfully" {
		t.Errorf("message = %v", body["message"])
	}
	appt := body["appointment"].(map[string]any)
	if appt["patientId"] != patient.ID {
		t.Errorf("patientId = %v, want session user %s", appt["patientId"], patient.ID)
	}
	if appt["doctorName"] != "Gregory House" {
		t.Errorf("doctorName = %v", appt["doctorName"])
	}
	if appt["status"] != "scheduled" {
		t.Errorf("status = %v", appt["status"])
	}
}

func TestCreateAppointmentIgnoresSpoofedPatient(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, patient, doctor := seedClinic(t, env)

	payload := bookingPayload(doctor.ID)
	payload["patientId"] = "someone-else"
	payload["patientEmail"] = "attacker@example.com"
	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	appt := decodeBody(t, rec)["appointment"].(map[string]any)
	if appt["patientId"] != patient.ID || appt["patientEmail"] != patient.Email {
		t.Errorf("patient identity not forced from session: %v", appt)
	}
}

func TestDoctorCannotCreateAppointment(t *testing.T) {
	env := newTestEnv(t)
	_, doctorTok, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", doctorTok, bookingPayload(doctor.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateAppointmentInvalidDoctor(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, _ := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload("missing-doctor"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Invalid doctor selected" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateAppointmentDoctorRoleRequired(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, _ := seedClinic(t, env)

	// Booking against another patient's id must fail the doctor check.
	other, _ := env.addUser(t, "Other Patient", "other@example.com", model.RolePatient, nil)
	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(other.ID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateAppointmentConflict(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	if rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", rec.Code)
	}

	// Overlapping span on the same doctor and day.
	payload := bookingPayload(doctor.ID)
	payload["startTime"] = "09:15"
	payload["endTime"] = "09:45"
	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Time slot is already booked" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateAppointmentBackToBack(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	if rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", rec.Code)
	}

	// Touching the previous slot's end is not a conflict.
	payload := bookingPayload(doctor.ID)
	payload["startTime"] = "09:30"
	payload["endTime"] = "10:00"
	if rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, payload); rec.Code != http.StatusCreated {
		t.Fatalf("back-to-back booking status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCancelledSlotRebookable(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", rec.Code)
	}
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodPut, "/api/appointments/"+id, patientTok, map[string]any{"status": "cancelled"})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body.String())
	}

	if rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("rebooking cancelled slot status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	payload := bookingPayload(doctor.ID)
	payload["startTime"] = "9am"
	payload["reason"] = "hi"
	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Validation failed" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListAppointmentsRoleScoped(t *testing.T) {
	env := newTestEnv(t)
	patientTok, doctorTok, _, doctor := seedClinic(t, env)

	if rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID)); rec.Code != http.StatusCreated {
		t.Fatalf("booking status = %d", rec.Code)
	}

	_, otherPatientTok := env.addUser(t, "Other", "other@example.com", model.RolePatient, nil)

	for tok, want := range map[string]int{patientTok: 1, doctorTok: 1, otherPatientTok: 0} {
		rec := env.do(t, http.MethodGet, "/api/appointments", tok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d", rec.Code)
		}
		appts := decodeBody(t, rec)["appointments"].([]any)
		if len(appts) != want {
			t.Errorf("got %d appointments, want %d", len(appts), want)
		}
	}
}

func TestListAppointmentsStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)
	env.do(t, http.MethodPut, "/api/appointments/"+id, patientTok, map[string]any{"status": "completed"})

	rec = env.do(t, http.MethodGet, "/api/appointments?status=scheduled", patientTok, nil)
	if got := len(decodeBody(t, rec)["appointments"].([]any)); got != 0 {
		t.Errorf("scheduled count = %d, want 0", got)
	}
	rec = env.do(t, http.MethodGet, "/api/appointments?status=completed", patientTok, nil)
	if got := len(decodeBody(t, rec)["appointments"].([]any)); got != 1 {
		t.Errorf("completed count = %d, want 1", got)
	}

	rec = env.do(t, http.MethodGet, "/api/appointments?status=pending", patientTok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status filter status = %d", rec.Code)
	}
}

func TestGetAppointmentOwnership(t *testing.T) {
	env := newTestEnv(t)
	patientTok, doctorTok, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	// Owning patient and assigned doctor can read it.
	for _, tok := range []string{patientTok, doctorTok} {
		if rec := env.do(t, http.MethodGet, "/api/appointments/"+id, tok, nil); rec.Code != http.StatusOK {
			t.Errorf("owner read status = %d", rec.Code)
		}
	}

	// A third party cannot.
	_, strangerTok := env.addUser(t, "Stranger", "stranger@example.com", model.RolePatient, nil)
	rec = env.do(t, http.MethodGet, "/api/appointments/"+id, strangerTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger read status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Access denied. You can only view your own appointments." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUpdateAppointmentByDoctor(t *testing.T) {
	env := newTestEnv(t)
	patientTok, doctorTok, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodPut, "/api/appointments/"+id, doctorTok, map[string]any{
		"status":       "completed",
		"diagnosis":    "Tension headache",
		"prescription": "Ibuprofen 400mg",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Appointment updated successfully" {
		t.Errorf("message = %v", body["message"])
	}
	appt := body["appointment"].(map[string]any)
	if appt["status"] != "completed" || appt["diagnosis"] != "Tension headache" {
		t.Errorf("unexpected appointment: %v", appt)
	}
}

func TestUpdateAppointmentDenied(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	_, otherDoctorTok := env.addUser(t, "Other Doctor", "other.doc@example.com", model.RoleDoctor, nil)
	rec = env.do(t, http.MethodPut, "/api/appointments/"+id, otherDoctorTok, map[string]any{"status": "completed"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Access denied. You can only update your own appointments." {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestUpdateAppointmentInvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodPut, "/api/appointments/"+id, patientTok, map[string]any{"status": "pending"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteAppointment(t *testing.T) {
	env := newTestEnv(t)
	patientTok, _, _, doctor := seedClinic(t, env)

	rec := env.do(t, http.MethodPost, "/api/appointments", patientTok, bookingPayload(doctor.ID))
	id := decodeBody(t, rec)["appointment"].(map[string]any)["_id"].(string)

	_, strangerTok := env.addUser(t, "Stranger", "stranger@example.com", model.RolePatient, nil)
	rec = env.do(t, http.MethodDelete, "/api/appointments/"+id, strangerTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/appointments/"+id, patientTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Appointment deleted successfully" {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/appointments/"+id, patientTok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("read after delete status = %d", rec.Code)
	}
	if decodeBody(t, rec)["message"] != "Appointment not found" {
		t.Errorf("body = %s", rec.Body.String())
	}
}
