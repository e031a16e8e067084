// Package validate implements request field validation for the clinic API.
// Messages are stable and surfaced verbatim to clients.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	timeRe  = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// NormalizeHHMM zero-pads the hour so times compare correctly as strings
// ("9:30" becomes "09:30"). The input must already match the HH:MM rule.
func NormalizeHHMM(s string) string {
	if len(s) == 4 {
		return "0" + s
	}
	return s
}

// Minutes converts a zero-padded HH:MM string to minutes since midnight.
func Minutes(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q", s)
	}
	return hh*60 + mm, nil
}

func validRole(role string) bool {
	return role == "patient" || role == "doctor"
}

func validStatus(status string) bool {
	switch status {
	case "scheduled", "completed", "cancelled", "no-show":
		return true
	}
	return false
}

// Registration validates the register payload.
func Registration(email, password, name, role, phone string) []FieldError {
	var errs []FieldError
	if !emailRe.MatchString(email) {
		errs = append(errs, FieldError{"email", "Please provide a valid email address", email})
	}
	if len(password) < 6 {
		errs = append(errs, FieldError{Field: "password", Message: "Password must be at least 6 characters long"})
	}
	if n := len(strings.TrimSpace(name)); n < 2 || n > 100 {
		errs = append(errs, FieldError{"name", "Name must be between 2 and 100 characters", name})
	}
	if !validRole(role) {
		errs = append(errs, FieldError{"role", "Role must be either patient or doctor", role})
	}
	if phone != "" && (len(phone) < 10 || len(phone) > 15) {
		errs = append(errs, FieldError{"phone", "Phone number must be between 10 and 15 characters", phone})
	}
	return errs
}

// Login validates the login payload.
func Login(email, password string) []FieldError {
	var errs []FieldError
	if !emailRe.MatchString(email) {
		errs = append(errs, FieldError{"email", "Please provide a valid email address", email})
	}
	if password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "Password is required"})
	}
	return errs
}

// AppointmentCreation validates the create-appointment payload. Date is the
// raw client string; it must parse as an ISO 8601 date.
func AppointmentCreation(doctorID, date, startTime, endTime, reason, symptoms, patientPhone string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(doctorID) == "" {
		errs = append(errs, FieldError{Field: "doctorId", Message: "Doctor ID is required"})
	}
	if _, err := ParseDate(date); err != nil {
		errs = append(errs, FieldError{"date", "Please provide a valid date", date})
	}
	startOK := timeRe.MatchString(startTime)
	endOK := timeRe.MatchString(endTime)
	if !startOK {
		errs = append(errs, FieldError{"startTime", "Please provide a valid start time (HH:MM)", startTime})
	}
	if !endOK {
		errs = append(errs, FieldError{"endTime", "Please provide a valid end time (HH:MM)", endTime})
	}
	if startOK && endOK && NormalizeHHMM(endTime) <= NormalizeHHMM(startTime) {
		errs = append(errs, FieldError{"endTime", "End time must be after start time", endTime})
	}
	if n := len(strings.TrimSpace(reason)); n < 5 || n > 500 {
		errs = append(errs, FieldError{"reason", "Reason must be between 5 and 500 characters", reason})
	}
	if len(symptoms) > 1000 {
		errs = append(errs, FieldError{Field: "symptoms", Message: "Symptoms cannot exceed 1000 characters"})
	}
	if patientPhone != "" && !phoneRe.MatchString(patientPhone) {
		errs = append(errs, FieldError{"patientPhone", "Please provide a valid phone number", patientPhone})
	}
	return errs
}

// AppointmentUpdate validates the mutable appointment fields. Nil pointers
// mean the field was omitted and is left unchanged.
func AppointmentUpdate(status, notes, diagnosis, prescription *string) []FieldError {
	var errs []FieldError
	if status != nil && !validStatus(*status) {
		errs = append(errs, FieldError{"status", "Status must be one of: scheduled, completed, cancelled, no-show", *status})
	}
	if notes != nil && len(*notes) > 2000 {
		errs = append(errs, FieldError{Field: "notes", Message: "Notes cannot exceed 2000 characters"})
	}
	if diagnosis != nil && len(*diagnosis) > 1000 {
		errs = append(errs, FieldError{Field: "diagnosis", Message: "Diagnosis cannot exceed 1000 characters"})
	}
	if prescription != nil && len(*prescription) > 2000 {
		errs = append(errs, FieldError{Field: "prescription", Message: "Prescription cannot exceed 2000 characters"})
	}
	return errs
}

// ParseDate accepts an ISO 8601 date, with or without a time component,
// and returns the calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
