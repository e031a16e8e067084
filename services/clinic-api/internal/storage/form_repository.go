package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medplanner/medplanner/libs/db"
	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

type FormRepository struct {
	pool *db.Pool
}

func NewFormRepository(pool *db.Pool) *FormRepository {
	return &FormRepository{pool: pool}
}

func (r *FormRepository) ListForms(ctx context.Context) ([]model.QuestionnaireForm, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, specialization, form_name, questions
		FROM questionnaire_forms
		ORDER BY specialization ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []model.QuestionnaireForm
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, *f)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return forms, nil
}

func (r *FormRepository) GetBySpecialization(ctx context.Context, specialization string) (*model.QuestionnaireForm, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, specialization, form_name, questions
		FROM questionnaire_forms
		WHERE LOWER(specialization) = LOWER($1)
	`, specialization)
	return scanForm(row)
}

// SeedForms inserts the bundled intake forms, skipping specializations that
// already have one.
func (r *FormRepository) SeedForms(ctx context.Context, forms []model.QuestionnaireForm) error {
	for _, f := range forms {
		questions, err := json.Marshal(f.Questions)
		if err != nil {
			return fmt.Errorf("encode questions for %s: %w", f.Specialization, err)
		}
		id := f.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = r.pool.Exec(ctx, `
			INSERT INTO questionnaire_forms (id, specialization, form_name, questions)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (specialization) DO NOTHING
		`, id, f.Specialization, f.FormName, questions)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanForm(row pgx.Row) (*model.QuestionnaireForm, error) {
	var f model.QuestionnaireForm
	var questions []byte
	err := row.Scan(&f.ID, &f.Specialization, &f.FormName, &questions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &f.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &f, nil
}
