package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduling-api/internal/repository"
)

// Store binds the repositories to a connection pool. Inside Atomically the
// same repositories are bound to the open transaction instead.
type Store struct {
	db *sqlx.DB
	repos
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, repos: repos{q: db}}
}

func (s *Store) Atomically(ctx context.Context, practitionerID uuid.UUID, fn func(tx repository.Repositories) error) error {
	return withTx(ctx, s.db, nil, func(tx *sqlx.Tx) error {
		if err := lockPractitioner(ctx, tx, practitionerID.String()); err != nil {
			return err
		}
		return fn(repos{q: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// repos implements repository.Repositories over any sqlx executor.
type repos struct {
	q sqlx.ExtContext
}

func (r repos) Practitioners() repository.PractitionerRepository {
	return NewPractitionerRepository(r.q)
}

func (r repos) Patients() repository.PatientRepository {
	return NewPatientRepository(r.q)
}

func (r repos) Availability() repository.AvailabilityRepository {
	return NewAvailabilityRepository(r.q)
}

func (r repos) Appointments() repository.AppointmentRepository {
	return NewAppointmentRepository(r.q)
}

type practitionerRepository struct {
	db sqlx.ExtContext
}

type patientRepository struct {
	db sqlx.ExtContext
}

type availabilityRepository struct {
	db sqlx.ExtContext
}

type appointmentRepository struct {
	db sqlx.ExtContext
}

func NewPractitionerRepository(db sqlx.ExtContext) repository.PractitionerRepository {
	return &practitionerRepository{db: db}
}

func NewPatientRepository(db sqlx.ExtContext) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewAvailabilityRepository(db sqlx.ExtContext) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func NewAppointmentRepository(db sqlx.ExtContext) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}
