package model

import (
	"time"

	"github.com/google/uuid"
)

// ReminderEvent is the payload dispatched for an appointment entering the
// reminder window.
type ReminderEvent struct {
	ID               uuid.UUID `json:"id"`
	AppointmentID    uuid.UUID `json:"appointment_id"`
	PractitionerID   uuid.UUID `json:"practitioner_id"`
	PatientID        uuid.UUID `json:"patient_id"`
	PractitionerName string    `json:"practitioner_name,omitempty"`
	PatientName      string    `json:"patient_name,omitempty"`
	Recipient        string    `json:"recipient,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewReminderEvent builds the event for appointment a.
func NewReminderEvent(a *Appointment, now time.Time) *ReminderEvent {
	return &ReminderEvent{
		ID:             uuid.New(),
		AppointmentID:  a.ID,
		PractitionerID: a.PractitionerID,
		PatientID:      a.PatientID,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		CreatedAt:      now,
	}
}
