package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

func (r *practitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	query := `
		INSERT INTO practitioners (
			id, first_name, last_name, specialty, active,
			default_duration_minutes, tariff, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.DefaultDurationMinutes <= 0 {
		p.DefaultDurationMinutes = model.DefaultConsultationMinutes
	}
	p.Touch(time.Now())

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Specialty, p.Active,
		p.DefaultDurationMinutes, p.Tariff, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err, "practitioner", "create")
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	query := `
		SELECT id, first_name, last_name, specialty, active,
			   default_duration_minutes, tariff, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`
	var p model.Practitioner
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		return nil, translate(err, "practitioner", "get")
	}
	return &p, nil
}

func (r *practitionerRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE practitioners SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id,
	)
	if err != nil {
		return translate(err, "practitioner", "update")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "practitioner", "update")
	}
	if rows == 0 {
		return apperrors.NotFound("practitioner", nil)
	}
	return nil
}

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO patients (id, first_name, last_name, email, phone) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone,
	)
	return translate(err, "patient", "create")
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT id, first_name, last_name, email, phone FROM patients WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "patient", "get")
	}
	return &p, nil
}
