package handlers

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/medplanner/medplanner/services/clinic-api/internal/audit"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*model.User)}
}

func (s *memUsers) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) ListDoctors(_ context.Context, specialization string) ([]model.PublicDoctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doctors []model.PublicDoctor
	for _, u := range s.users {
		if u.Role != model.RoleDoctor || !u.IsActive {
			continue
		}
		d := model.PublicDoctor{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
		if u.Doctor != nil {
			d.Specialization = u.Doctor.Specialization
			d.Availability = u.Doctor.Availability
		}
		if specialization != "" && !strings.EqualFold(d.Specialization, specialization) {
			continue
		}
		doctors = append(doctors, d)
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

type memAppointments struct {
	mu    sync.Mutex
	appts map[string]*model.Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{appts: make(map[string]*model.Appointment)}
}

func (s *memAppointments) Create(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.appts {
		if existing.DoctorID == a.DoctorID &&
			existing.Date.Equal(a.Date) &&
			existing.Status == model.StatusScheduled &&
			existing.StartTime < a.EndTime && a.StartTime < existing.EndTime {
			return storage.ErrSlotTaken
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	s.appts[a.ID] = &cp
	return nil
}

func (s *memAppointments) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAppointments) List(_ context.Context, f storage.ListFilter) ([]model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Appointment
	for _, a := range s.appts {
		if f.PatientID != "" && a.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		if !f.StartDate.IsZero() && a.Date.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && a.Date.After(f.EndDate) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *memAppointments) Update(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[a.ID]; !ok {
		return storage.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	s.appts[a.ID] = &cp
	return nil
}

func (s *memAppointments) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.appts, id)
	return nil
}

func (s *memAppointments) ListBookedIntervals(_ context.Context, doctorID string, date time.Time) ([][2]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var intervals [][2]string
	for _, a := range s.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status == model.StatusScheduled {
			intervals = append(intervals, [2]string{a.StartTime, a.EndTime})
		}
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i][0] < intervals[j][0] })
	return intervals, nil
}

type memForms struct {
	forms []model.QuestionnaireForm
}

func (s *memForms) ListForms(context.Context) ([]model.QuestionnaireForm, error) {
	return s.forms, nil
}

func (s *memForms) GetBySpecialization(_ context.Context, specialization string) (*model.QuestionnaireForm, error) {
	for i := range s.forms {
		if strings.EqualFold(s.forms[i].Specialization, specialization) {
			return &s.forms[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

type memAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *memAudit) Record(_ context.Context, eventType string, actorID string, _ map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, audit.Event{
		ID:        int64(len(s.events) + 1),
		EventType: eventType,
		ActorID:   actorID,
	})
	return nil
}

func (s *memAudit) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
