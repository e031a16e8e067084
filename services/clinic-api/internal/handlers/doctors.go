package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/medplanner/medplanner/services/clinic-api/internal/availability"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/respond"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
	"github.com/medplanner/medplanner/services/clinic-api/internal/validate"
)

const defaultSlotMinutes = 30

type DoctorHandler struct {
	users  storage.UserStore
	appts  storage.AppointmentStore
	logger *slog.Logger
}

func NewDoctorHandler(users storage.UserStore, appts storage.AppointmentStore, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{users: users, appts: appts, logger: logger}
}

// List returns the active doctor directory, optionally filtered by
// specialization.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.users.ListDoctors(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		h.logger.Error("list doctors", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to list doctors")
		return
	}
	if doctors == nil {
		doctors = []model.PublicDoctor{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

// Slots returns a doctor's free slots for one day, derived from their
// weekly availability minus scheduled appointments.
func (h *DoctorHandler) Slots(w http.ResponseWriter, r *http.Request) {
	rawDate := r.URL.Query().Get("date")
	date, err := validate.ParseDate(rawDate)
	if err != nil {
		respond.ValidationFailed(w, []validate.FieldError{
			{Field: "date", Message: "Please provide a valid date", Value: rawDate},
		})
		return
	}
	duration := defaultSlotMinutes
	if v := r.URL.Query().Get("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d <= 0 {
			respond.ValidationFailed(w, []validate.FieldError{
				{Field: "duration", Message: "Duration must be a positive number of minutes", Value: v},
			})
			return
		}
		duration = d
	}

	ctx := r.Context()
	doctor, err := h.users.GetByID(ctx, r.PathValue("id"))
	if err != nil || doctor.Role != model.RoleDoctor || !doctor.IsActive {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("load doctor", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to load doctor")
			return
		}
		respond.Error(w, http.StatusNotFound, "Doctor not found")
		return
	}

	booked, err := h.appts.ListBookedIntervals(ctx, doctor.ID, date)
	if err != nil {
		h.logger.Error("list booked intervals", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load slots")
		return
	}
	busy := make([]availability.Interval, 0, len(booked))
	for _, iv := range booked {
		start, err := validate.Minutes(iv[0])
		if err != nil {
			h.logger.Error("parse booked interval", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to load slots")
			return
		}
		end, err := validate.Minutes(iv[1])
		if err != nil {
			h.logger.Error("parse booked interval", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to load slots")
			return
		}
		busy = append(busy, availability.Interval{Start: start, End: end})
	}

	var windows []model.AvailabilityWindow
	if doctor.Doctor != nil {
		windows = doctor.Doctor.Availability
	}
	slots, err := availability.FreeSlots(windows, date.Weekday(), busy, duration, 0)
	if err != nil {
		h.logger.Error("compute slots", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to load slots")
		return
	}
	if slots == nil {
		slots = []availability.Slot{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"doctorId": doctor.ID,
		"date":     date.Format("2006-01-02"),
		"slots":    slots,
	})
}
