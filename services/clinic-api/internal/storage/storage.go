// Package storage defines the persistence interfaces for the clinic API
// and their Postgres implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrSlotTaken      = errors.New("time slot already booked")
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListDoctors(ctx context.Context, specialization string) ([]model.PublicDoctor, error)
}

// ListFilter narrows appointment listings. Zero values mean "any".
type ListFilter struct {
	PatientID string
	DoctorID  string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

type AppointmentStore interface {
	// Create inserts the appointment, failing with ErrSlotTaken when a
	// scheduled appointment for the same doctor and date overlaps it.
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, f ListFilter) ([]model.Appointment, error)
	Update(ctx context.Context, a *model.Appointment) error
	Delete(ctx context.Context, id string) error
	// ListBookedIntervals returns the scheduled [start, end) spans for one
	// doctor on one day, as HH:MM pairs.
	ListBookedIntervals(ctx context.Context, doctorID string, date time.Time) ([][2]string, error)
}

type FormStore interface {
	ListForms(ctx context.Context) ([]model.QuestionnaireForm, error)
	GetBySpecialization(ctx context.Context, specialization string) (*model.QuestionnaireForm, error)
}
