// Package scheduling holds the pure rules of the booking engine: interval
// overlap, slot enumeration, the appointment state machine and the reminder
// window. Nothing here touches storage.
package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether Start is strictly before End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps uses the half-open test s < end && e > start, so intervals that
// only touch at an endpoint do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Blocks reports whether a holds its interval against other bookings.
// Cancelled appointments release their time immediately.
func Blocks(a *model.Appointment) bool {
	return a.Status != model.AppointmentStatusCancelled
}

// Conflicts returns the appointments in existing that block candidate.
// An appointment whose ID equals exclude is skipped, which lets a reschedule
// ignore its own current interval.
func Conflicts(existing []*model.Appointment, candidate Interval, exclude uuid.UUID) []*model.Appointment {
	var out []*model.Appointment
	for _, a := range existing {
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		if !Blocks(a) {
			continue
		}
		if candidate.Overlaps(NewInterval(a.StartTime, a.EndTime)) {
			out = append(out, a)
		}
	}
	return out
}

// HasConflict is Conflicts reduced to a bool.
func HasConflict(existing []*model.Appointment, candidate Interval, exclude uuid.UUID) bool {
	return len(Conflicts(existing, candidate, exclude)) > 0
}
