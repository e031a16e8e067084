// Package model holds the clinic domain types shared by storage and handlers.
package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// AvailabilityWindow is one recurring weekly window a doctor accepts
// appointments in. Times are zero-padded HH:MM.
type AvailabilityWindow struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type DoctorProfile struct {
	Specialization string               `json:"specialization,omitempty"`
	LicenseNumber  string               `json:"licenseNumber,omitempty"`
	Availability   []AvailabilityWindow `json:"availability,omitempty"`
}

type PatientProfile struct {
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Address        string     `json:"address,omitempty"`
	MedicalHistory []string   `json:"medicalHistory,omitempty"`
}

// User is either a patient or a doctor; exactly one of the profile
// pointers is set, matching Role.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Patient *PatientProfile `json:"patient,omitempty"`
	Doctor  *DoctorProfile  `json:"doctor,omitempty"`
}

// PublicDoctor is the directory view of a doctor, without contact-sensitive
// or account fields.
type PublicDoctor struct {
	ID             string               `json:"_id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Specialization string               `json:"specialization,omitempty"`
	Phone          string               `json:"phone,omitempty"`
	Availability   []AvailabilityWindow `json:"availability,omitempty"`
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID           string            `json:"_id"`
	PatientID    string            `json:"patientId"`
	PatientName  string            `json:"patientName"`
	PatientEmail string            `json:"patientEmail"`
	PatientPhone string            `json:"patientPhone,omitempty"`
	DoctorID     string            `json:"doctorId"`
	DoctorName   string            `json:"doctorName"`
	Date         time.Time         `json:"date"`
	StartTime    string            `json:"startTime"`
	EndTime      string            `json:"endTime"`
	Status       AppointmentStatus `json:"status"`
	Reason       string            `json:"reason"`
	Symptoms     string            `json:"symptoms,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Diagnosis    string            `json:"diagnosis,omitempty"`
	Prescription string            `json:"prescription,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Question is one intake questionnaire entry. When HasOptions is set the
// patient picks from Options; OptionsValue carries the numeric score per
// option, index-aligned.
type Question struct {
	QuestionID   string    `json:"questionId"`
	Question     string    `json:"question"`
	HasOptions   bool      `json:"hasOptions"`
	Options      []string  `json:"options,omitempty"`
	OptionsValue []float64 `json:"optionsValue,omitempty"`
	Type         string    `json:"type,omitempty"`
}

type QuestionnaireForm struct {
	ID             string     `json:"_id"`
	Specialization string     `json:"specialization"`
	FormName       string     `json:"form_name"`
	Questions      []Question `json:"questions"`
}
