package scheduling

import (
	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

// transitions lists every allowed status change. Anything missing is an
// invalid transition, including a status to itself.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusInProgress: {
		model.AppointmentStatusCompleted,
	},
}

// CanTransition reports whether from -> to appears in the transition table.
func CanTransition(from, to model.AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition returns an InvalidTransition error unless from -> to is allowed.
func Transition(from, to model.AppointmentStatus) error {
	if !to.Valid() {
		return apperrors.Validationf("unknown appointment status %q", to)
	}
	if !CanTransition(from, to) {
		return apperrors.InvalidTransition(string(from), string(to))
	}
	return nil
}

// CanReschedule reports whether an appointment in status s may move to a new
// interval. Rescheduling keeps the status unchanged.
func CanReschedule(s model.AppointmentStatus) bool {
	return s.Pending()
}

// Targets returns the statuses reachable from s in one step.
func Targets(s model.AppointmentStatus) []model.AppointmentStatus {
	out := make([]model.AppointmentStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
