package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

var appointmentStatuses = map[AppointmentStatus]bool{
	AppointmentStatusScheduled:  true,
	AppointmentStatusConfirmed:  true,
	AppointmentStatusInProgress: true,
	AppointmentStatusCompleted:  true,
	AppointmentStatusCancelled:  true,
	AppointmentStatusNoShow:     true,
}

func (s AppointmentStatus) Valid() bool {
	return appointmentStatuses[s]
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

// Pending reports whether s still holds a future booking (scheduled or
// confirmed).
func (s AppointmentStatus) Pending() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

type Appointment struct {
	Base
	PractitionerID        uuid.UUID         `db:"practitioner_id" json:"practitioner_id"`
	PatientID             uuid.UUID         `db:"patient_id" json:"patient_id"`
	StartTime             time.Time         `db:"start_time" json:"start_time"`
	EndTime               time.Time         `db:"end_time" json:"end_time"`
	Status                AppointmentStatus `db:"status" json:"status"`
	Reason                string            `db:"reason" json:"reason,omitempty"`
	Notes                 string            `db:"notes" json:"notes,omitempty"`
	CancelReason          *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	Tariff                *float64          `db:"tariff" json:"tariff,omitempty"`
	ConsultationStartedAt *time.Time        `db:"consultation_started_at" json:"consultation_started_at,omitempty"`
	ConsultationEndedAt   *time.Time        `db:"consultation_ended_at" json:"consultation_ended_at,omitempty"`
	ReminderSent          bool              `db:"reminder_sent" json:"reminder_sent"`
	ReminderSentAt        *time.Time        `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
}

// Duration of the booked interval.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (a *Appointment) Clone() *Appointment {
	if a == nil {
		return nil
	}
	c := *a
	c.CancelReason = clonePtr(a.CancelReason)
	c.Tariff = clonePtr(a.Tariff)
	c.ConsultationStartedAt = clonePtr(a.ConsultationStartedAt)
	c.ConsultationEndedAt = clonePtr(a.ConsultationEndedAt)
	c.ReminderSentAt = clonePtr(a.ReminderSentAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type CreateAppointmentRequest struct {
	PractitionerID uuid.UUID  `json:"practitioner_id" binding:"required"`
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        *time.Time `json:"end_time"`
	Reason         string     `json:"reason" binding:"max=100"`
	Notes          string     `json:"notes" binding:"max=1000"`
	Tariff         *float64   `json:"tariff" binding:"omitempty,gte=0"`
}

type RescheduleAppointmentRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type UpdateStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
	Reason string            `json:"reason"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type AppointmentFilters struct {
	PractitionerID uuid.UUID
	PatientID      uuid.UUID
	Status         AppointmentStatus
	From           time.Time
	To             time.Time
	Limit          int
}
