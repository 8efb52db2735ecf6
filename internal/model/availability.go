package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityTemplate is a recurring weekly block of open hours.
type AvailabilityTemplate struct {
	Base
	PractitionerID uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	DayOfWeek      DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime      TimeOfDay `db:"start_time" json:"start_time"`
	EndTime        TimeOfDay `db:"end_time" json:"end_time"`
	Active         bool      `db:"active" json:"active"`
}

func (t *AvailabilityTemplate) String() string {
	return string(t.DayOfWeek) + " " + t.StartTime.String() + " - " + t.EndTime.String()
}

type AddAvailabilityTemplateRequest struct {
	DayOfWeek string `json:"day_of_week" binding:"required,dayofweek"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

// TimeSlot is a free start time and the end it implies for the requested
// duration.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
