package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medplanner/medplanner/libs/db"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	var (
		dob            *time.Time
		address        string
		history        = []byte("[]")
		specialization string
		license        string
		avail          = []byte("[]")
	)
	if u.Patient != nil {
		dob = u.Patient.DateOfBirth
		address = u.Patient.Address
		if u.Patient.MedicalHistory != nil {
			b, err := json.Marshal(u.Patient.MedicalHistory)
			if err != nil {
				return fmt.Errorf("encode medical history: %w", err)
			}
			history = b
		}
	}
	if u.Doctor != nil {
		specialization = u.Doctor.Specialization
		license = u.Doctor.LicenseNumber
		if u.Doctor.Availability != nil {
			b, err := json.Marshal(u.Doctor.Availability)
			if err != nil {
				return fmt.Errorf("encode availability: %w", err)
			}
			avail = b
		}
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users
			(id, email, password_hash, name, role, phone, is_active,
			 date_of_birth, address, medical_history, specialization, license_number, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Phone, u.IsActive,
		dob, address, history, specialization, license, avail,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, phone, is_active,
			date_of_birth, address, medical_history, specialization, license_number, availability,
			created_at, updated_at
		FROM users
		WHERE `+column+` = $1
	`, value)
	return scanUser(row)
}

func (r *UserRepository) ListDoctors(ctx context.Context, specialization string) ([]model.PublicDoctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, specialization, phone, availability
		FROM users
		WHERE role = 'doctor'
			AND is_active
			AND ($1 = '' OR LOWER(specialization) = LOWER($1))
		ORDER BY name ASC
	`, specialization)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.PublicDoctor
	for rows.Next() {
		var d model.PublicDoctor
		var avail []byte
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialization, &d.Phone, &avail); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(avail, &d.Availability); err != nil {
			return nil, fmt.Errorf("decode availability: %w", err)
		}
		doctors = append(doctors, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return doctors, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u              model.User
		dob            *time.Time
		address        string
		history        []byte
		specialization string
		license        string
		avail          []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Phone, &u.IsActive,
		&dob, &address, &history, &specialization, &license, &avail,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	switch u.Role {
	case model.RolePatient:
		p := &model.PatientProfile{DateOfBirth: dob, Address: address}
		if err := json.Unmarshal(history, &p.MedicalHistory); err != nil {
			return nil, fmt.Errorf("decode medical history: %w", err)
		}
		u.Patient = p
	case model.RoleDoctor:
		d := &model.DoctorProfile{Specialization: specialization, LicenseNumber: license}
		if err := json.Unmarshal(avail, &d.Availability); err != nil {
			return nil, fmt.Errorf("decode availability: %w", err)
		}
		u.Doctor = d
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
