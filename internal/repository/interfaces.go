package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	// PractitionerRepository reads practitioners and toggles their active flag.
	PractitionerRepository interface {
		Create(ctx context.Context, practitioner *model.Practitioner) error
		Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	// PatientRepository is the identity lookup for patients.
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	AvailabilityRepository interface {
		Create(ctx context.Context, tmpl *model.AvailabilityTemplate) error
		Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityTemplate, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// FindTemplates returns the active templates of a practitioner for one day.
		FindTemplates(ctx context.Context, practitionerID uuid.UUID, day model.DayOfWeek) ([]*model.AvailabilityTemplate, error)
		ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityTemplate, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Insert(ctx context.Context, appointment *model.Appointment) error
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// FindOverlapping returns the non-cancelled appointments of a
		// practitioner that intersect [start, end).
		FindOverlapping(ctx context.Context, practitionerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error)
		// FindDue returns pending, not yet reminded appointments starting in [from, to).
		FindDue(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
		// MarkReminderSent sets the reminder flag once. It reports whether
		// this call changed the row.
		MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	}

	// Repositories groups the repositories bound to one connection or
	// transaction.
	Repositories interface {
		Practitioners() PractitionerRepository
		Patients() PatientRepository
		Availability() AvailabilityRepository
		Appointments() AppointmentRepository
	}

	// Store is the persistence boundary of the scheduling engine.
	Store interface {
		Repositories
		// Atomically runs fn with exclusive access to the appointment set of
		// practitionerID. Writes made through tx become visible only if fn
		// returns nil.
		Atomically(ctx context.Context, practitionerID uuid.UUID, fn func(tx Repositories) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
