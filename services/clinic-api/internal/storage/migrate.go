package storage

import (
	"context"

	"github.com/medplanner/medplanner/libs/db"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('patient', 'doctor')),
		phone TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		date_of_birth DATE,
		address TEXT NOT NULL DEFAULT '',
		medical_history JSONB NOT NULL DEFAULT '[]',
		specialization TEXT NOT NULL DEFAULT '',
		license_number TEXT NOT NULL DEFAULT '',
		availability JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL REFERENCES users(id),
		patient_name TEXT NOT NULL,
		patient_email TEXT NOT NULL,
		patient_phone TEXT NOT NULL DEFAULT '',
		doctor_id UUID NOT NULL REFERENCES users(id),
		doctor_name TEXT NOT NULL,
		date DATE NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'completed', 'cancelled', 'no-show')),
		reason TEXT NOT NULL,
		symptoms TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		diagnosis TEXT NOT NULL DEFAULT '',
		prescription TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date
		ON appointments (doctor_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient
		ON appointments (patient_id)`,
	`CREATE TABLE IF NOT EXISTS questionnaire_forms (
		id UUID PRIMARY KEY,
		specialization TEXT NOT NULL UNIQUE,
		form_name TEXT NOT NULL,
		questions JSONB NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		actor_id UUID,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func Migrate(ctx context.Context, pool *db.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
