package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

const templateColumns = `id, practitioner_id, day_of_week, start_time, end_time, active, created_at, updated_at`

// Templates come back Monday first, then by start time.
const templateOrder = `
	ORDER BY CASE day_of_week
		WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
		WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6
		ELSE 7 END, start_time ASC`

func (r *availabilityRepository) Create(ctx context.Context, tmpl *model.AvailabilityTemplate) error {
	query := `
		INSERT INTO availability_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	if tmpl.CreatedAt.IsZero() {
		tmpl.Touch(time.Now())
	}

	_, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.PractitionerID, tmpl.DayOfWeek, tmpl.StartTime, tmpl.EndTime,
		tmpl.Active, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	return translate(err, "availability template", "create")
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityTemplate, error) {
	var tmpl model.AvailabilityTemplate
	err := sqlx.GetContext(ctx, r.db, &tmpl, `SELECT `+templateColumns+` FROM availability_templates WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err, "availability template", "get")
	}
	return &tmpl, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_templates WHERE id = $1`, id)
	if err != nil {
		return translate(err, "availability template", "delete")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "availability template", "delete")
	}
	if rows == 0 {
		return apperrors.NotFound("availability template", nil)
	}
	return nil
}

func (r *availabilityRepository) FindTemplates(ctx context.Context, practitionerID uuid.UUID, day model.DayOfWeek) ([]*model.AvailabilityTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM availability_templates
		WHERE practitioner_id = $1 AND day_of_week = $2 AND active = TRUE
	` + templateOrder

	templates := make([]*model.AvailabilityTemplate, 0)
	if err := sqlx.SelectContext(ctx, r.db, &templates, query, practitionerID, day); err != nil {
		return nil, translate(err, "availability templates", "find")
	}
	return templates, nil
}

func (r *availabilityRepository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM availability_templates
		WHERE practitioner_id = $1
	` + templateOrder

	templates := make([]*model.AvailabilityTemplate, 0)
	if err := sqlx.SelectContext(ctx, r.db, &templates, query, practitionerID); err != nil {
		return nil, translate(err, "availability templates", "list")
	}
	return templates, nil
}
