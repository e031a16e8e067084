package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medplanner/medplanner/libs/db"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, patient_id, patient_name, patient_email, patient_phone,
	doctor_id, doctor_name, date, start_time, end_time, status,
	reason, symptoms, notes, diagnosis, prescription, created_at, updated_at`

// Create inserts the appointment after re-checking the slot inside the same
// transaction, so two concurrent requests for the same span cannot both
// succeed.
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var clash string
	err = tx.QueryRow(ctx, `
		SELECT id FROM appointments
		WHERE doctor_id = $1
			AND date = $2
			AND status = 'scheduled'
			AND start_time < $4
			AND end_time > $3
		LIMIT 1
		FOR UPDATE
	`, a.DoctorID, a.Date, a.StartTime, a.EndTime).Scan(&clash)
	if err == nil {
		return ErrSlotTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, patient_name, patient_email, patient_phone,
			 doctor_id, doctor_name, date, start_time, end_time, status,
			 reason, symptoms, notes, diagnosis, prescription)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`, a.ID, a.PatientID, a.PatientName, a.PatientEmail, a.PatientPhone,
		a.DoctorID, a.DoctorName, a.Date, a.StartTime, a.EndTime, a.Status,
		a.Reason, a.Symptoms, a.Notes, a.Diagnosis, a.Prescription,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *AppointmentRepository) List(ctx context.Context, f ListFilter) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1 = '' OR patient_id::text = $1)
			AND ($2 = '' OR doctor_id::text = $2)
			AND ($3 = '' OR status = $3)
			AND ($4::date IS NULL OR date >= $4)
			AND ($5::date IS NULL OR date <= $5)
		ORDER BY date DESC, start_time ASC
	`, f.PatientID, f.DoctorID, f.Status, nullableDate(f.StartDate), nullableDate(f.EndDate))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
			notes = $3,
			diagnosis = $4,
			prescription = $5,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, a.ID, a.Status, a.Notes, a.Diagnosis, a.Prescription).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) ListBookedIntervals(ctx context.Context, doctorID string, date time.Time) ([][2]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time, end_time
		FROM appointments
		WHERE doctor_id = $1
			AND date = $2
			AND status = 'scheduled'
		ORDER BY start_time ASC
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals [][2]string
	for rows.Next() {
		var iv [2]string
		if err := rows.Scan(&iv[0], &iv[1]); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return intervals, nil
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientEmail, &a.PatientPhone,
		&a.DoctorID, &a.DoctorName, &a.Date, &a.StartTime, &a.EndTime, &a.Status,
		&a.Reason, &a.Symptoms, &a.Notes, &a.Diagnosis, &a.Prescription,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
