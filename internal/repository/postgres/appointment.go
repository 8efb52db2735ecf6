package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

const appointmentColumns = `
	id, practitioner_id, patient_id, start_time, end_time, status,
	reason, notes, cancel_reason, tariff,
	consultation_started_at, consultation_ended_at,
	reminder_sent, reminder_sent_at, created_at, updated_at`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.db, &appointment, query, id); err != nil {
		return nil, translate(err, "appointment", "get")
	}
	return &appointment, nil
}

func (r *appointmentRepository) Insert(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, practitioner_id, patient_id, start_time, end_time, status,
			reason, notes, cancel_reason, tariff,
			consultation_started_at, consultation_ended_at,
			reminder_sent, reminder_sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.Touch(time.Now())
	}

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PractitionerID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.CancelReason,
		appointment.Tariff,
		appointment.ConsultationStartedAt,
		appointment.ConsultationEndedAt,
		appointment.ReminderSent,
		appointment.ReminderSentAt,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return translate(err, "appointment", "insert")
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, status = $3, reason = $4, notes = $5,
			cancel_reason = $6, tariff = $7,
			consultation_started_at = $8, consultation_ended_at = $9,
			reminder_sent = $10, reminder_sent_at = $11, updated_at = $12
		WHERE id = $13
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.CancelReason,
		appointment.Tariff,
		appointment.ConsultationStartedAt,
		appointment.ConsultationEndedAt,
		appointment.ReminderSent,
		appointment.ReminderSentAt,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return translate(err, "appointment", "update")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "appointment", "update")
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate(err, "appointment", "delete")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translate(err, "appointment", "delete")
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}

	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1 = 1`
	var args []interface{}
	argCount := 1

	if filters != nil {
		if filters.PractitionerID != uuid.Nil {
			query += fmt.Sprintf(" AND practitioner_id = $%d", argCount)
			args = append(args, filters.PractitionerID)
			argCount++
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.From.IsZero() {
			query += fmt.Sprintf(" AND start_time >= $%d", argCount)
			args = append(args, filters.From)
			argCount++
		}
		if !filters.To.IsZero() {
			query += fmt.Sprintf(" AND start_time < $%d", argCount)
			args = append(args, filters.To)
			argCount++
		}
	}

	query += " ORDER BY start_time ASC, id ASC"
	if filters != nil && filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filters.Limit)
	}

	appointments := make([]*model.Appointment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &appointments, query, args...); err != nil {
		return nil, translate(err, "appointments", "list")
	}
	return appointments, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, practitionerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE practitioner_id = $1
		AND status <> 'cancelled'
		AND start_time < $3
		AND end_time > $2
		ORDER BY start_time ASC
	`
	appointments := make([]*model.Appointment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &appointments, query, practitionerID, start, end); err != nil {
		return nil, translate(err, "appointments", "find overlapping")
	}
	return appointments, nil
}

func (r *appointmentRepository) FindDue(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		AND reminder_sent = FALSE
		AND start_time >= $1
		AND start_time < $2
		ORDER BY start_time ASC
	`
	appointments := make([]*model.Appointment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &appointments, query, from, to); err != nil {
		return nil, translate(err, "appointments", "find due")
	}
	return appointments, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET reminder_sent = TRUE, reminder_sent_at = $2, updated_at = $2
		WHERE id = $1 AND reminder_sent = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, translate(err, "appointment", "mark reminder")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, translate(err, "appointment", "mark reminder")
	}
	if rows > 0 {
		return true, nil
	}

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
		return false, translate(err, "appointment", "mark reminder")
	}
	if !exists {
		return false, apperrors.NotFound("appointment", nil)
	}
	return false, nil
}
