package scheduling

import (
	"time"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

const (
	ReminderLead   = 24 * time.Hour
	ReminderWindow = 24 * time.Hour
)

// ReminderRange returns the rolling window [now+24h, now+48h) whose
// appointments are due a reminder.
func ReminderRange(now time.Time) (time.Time, time.Time) {
	from := now.Add(ReminderLead)
	return from, from.Add(ReminderWindow)
}

// DueForReminder reports whether a should be picked up by a scan at now.
func DueForReminder(a *model.Appointment, now time.Time) bool {
	if a.ReminderSent || !a.Status.Pending() {
		return false
	}
	from, to := ReminderRange(now)
	return !a.StartTime.Before(from) && a.StartTime.Before(to)
}
