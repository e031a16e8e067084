package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medplanner/medplanner/services/clinic-api/internal/audit"
	"github.com/medplanner/medplanner/services/clinic-api/internal/middleware"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
	"github.com/medplanner/medplanner/services/clinic-api/internal/validate"
)

type AppointmentHandler struct {
	appts  storage.AppointmentStore
	users  storage.UserStore
	audit  audit.Recorder
	logger *slog.Logger
}

func NewAppointmentHandler(appts storage.AppointmentStore, users storage.UserStore, auditRepo audit.Recorder, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{appts: appts, users: users, audit: auditRepo, logger: logger}
}

type createAppointmentRequest struct {
	DoctorID     string `json:"doctorId"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Reason       string `json:"reason"`
	Symptoms     string `json:"symptoms"`
	PatientPhone string `json:"patientPhone"`
}

type updateAppointmentRequest struct {
	Status       *string `json:"status"`
	Notes        *string `json:"notes"`
	Diagnosis    *string `json:"diagnosis"`
	Prescription *string `json:"prescription"`
}

// Create books an appointment. Patient identity comes from the session,
// never the payload.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token.")
		return
	}
	if user.Role != model.RolePatient {
		respond.Error(w, http.StatusForbidden, "Access denied. Only patients can create appointments.")
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.AppointmentCreation(req.DoctorID, req.Date, req.StartTime, req.EndTime, req.Reason, req.Symptoms, req.PatientPhone); len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	ctx := r.Context()
	doctor, err := h.users.GetByID(ctx, req.DoctorID)
	if err != nil || doctor.Role != model.RoleDoctor || !doctor.IsActive {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("load doctor", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to create appointment")
			return
		}
		respond.Error(w, http.StatusBadRequest, "Invalid doctor selected")
		return
	}

	date, err := validate.ParseDate(req.Date)
	if err != nil {
		respond.ValidationFailed(w, []validate.FieldError{
			{Field: "date", Message: "Please provide a valid date", Value: req.Date},
		})
		return
	}

	appt := &model.Appointment{
		ID:           uuid.NewString(),
		PatientID:    user.ID,
		PatientName:  user.Name,
		PatientEmail: user.Email,
		PatientPhone: req.PatientPhone,
		DoctorID:     doctor.ID,
		DoctorName:   doctor.Name,
		Date:         date,
		StartTime:    validate.NormalizeHHMM(req.StartTime),
		EndTime:      validate.NormalizeHHMM(req.EndTime),
		Status:       model.StatusScheduled,
		Reason:       strings.TrimSpace(req.Reason),
		Symptoms:     req.Symptoms,
	}
	if appt.PatientPhone == "" {
		appt.PatientPhone = user.Phone
	}

	if err := h.appts.Create(ctx, appt); err != nil {
		if errors.Is(err, storage.ErrSlotTaken) {
			respond.Error(w, http.StatusBadRequest, "Time slot is already booked")
			return
		}
		h.logger.Error("create appointment", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	if err := h.audit.Record(ctx, "appointment.created", user.ID, map[string]any{
		"appointmentId": appt.ID,
		"doctorId":      appt.DoctorID,
	}); err != nil {
		h.logger.Warn("audit record", "error", err)
	}

	respond.JSON(w, http.StatusCreated, map[string]any{
		"message":     "Appointment created successfully",
		"appointment": appt,
	})
}

// List returns the requester's appointments: patients see their own
// bookings, doctors see their schedule.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token.")
		return
	}

	f := storage.ListFilter{Status: r.URL.Query().Get("status")}
	switch user.Role {
	case model.RolePatient:
		f.PatientID = user.ID
	case model.RoleDoctor:
		f.DoctorID = user.ID
	}
	if f.Status != "" && !model.AppointmentStatus(f.Status).Valid() {
		respond.ValidationFailed(w, []validate.FieldError{
			{Field: "status", Message: "Status must be one of: scheduled, completed, cancelled, no-show", Value: f.Status},
		})
		return
	}
	if v := r.URL.Query().Get("startDate"); v != "" {
		d, err := validate.ParseDate(v)
		if err != nil {
			respond.ValidationFailed(w, []validate.FieldError{
				{Field: "startDate", Message: "Please provide a valid date", Value: v},
			})
			return
		}
		f.StartDate = d
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		d, err := validate.ParseDate(v)
		if err != nil {
			respond.ValidationFailed(w, []validate.FieldError{
				{Field: "endDate", Message: "Please provide a valid date", Value: v},
			})
			return
		}
		f.EndDate = d
	}

	appts, err := h.appts.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list appointments", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to list appointments")
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, appt, ok := h.loadOwned(w, r, "Access denied. You can only view your own appointments.")
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"appointment": appt})
}

// Update changes the mutable fields. Only the owning patient or the
// assigned doctor may touch an appointment.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, appt, ok := h.loadOwned(w, r, "Access denied. You can only update your own appointments.")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.AppointmentUpdate(req.Status, req.Notes, req.Diagnosis, req.Prescription); len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	if req.Status != nil {
		appt.Status = model.AppointmentStatus(*req.Status)
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	if req.Diagnosis != nil {
		appt.Diagnosis = *req.Diagnosis
	}
	if req.Prescription != nil {
		appt.Prescription = *req.Prescription
	}

	if err := h.appts.Update(r.Context(), appt); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("update appointment", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	if err := h.audit.Record(r.Context(), "appointment.updated", user.ID, map[string]any{
		"appointmentId": appt.ID,
		"status":        appt.Status,
	}); err != nil {
		h.logger.Warn("audit record", "error", err)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":     "Appointment updated successfully",
		"appointment": appt,
	})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, appt, ok := h.loadOwned(w, r, "Access denied. You can only delete your own appointments.")
	if !ok {
		return
	}

	if err := h.appts.Delete(r.Context(), appt.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Appointment not found")
			return
		}
		h.logger.Error("delete appointment", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}

	if err := h.audit.Record(r.Context(), "appointment.deleted", user.ID, map[string]any{
		"appointmentId": appt.ID,
	}); err != nil {
		h.logger.Warn("audit record", "error", err)
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

// loadOwned fetches {id} and enforces ownership, writing the error response
// itself when the check fails.
func (h *AppointmentHandler) loadOwned(w http.ResponseWriter, r *http.Request, denied string) (*model.User, *model.Appointment, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token.")
		return nil, nil, false
	}

	appt, err := h.appts.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Appointment not found")
			return nil, nil, false
		}
		h.logger.Error("load appointment", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load appointment")
		return nil, nil, false
	}

	owns := appt.PatientID == user.ID || (user.Role == model.RoleDoctor && appt.DoctorID == user.ID)
	if !owns {
		respond.Error(w, http.StatusForbidden, denied)
		return nil, nil, false
	}
	return user, appt, true
}
