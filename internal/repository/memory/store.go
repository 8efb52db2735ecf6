// Package memory is an in-process Store used by tests and by the api when
// storage.driver is "memory".
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
)

// data holds every table. Stored values are never mutated in place; writers
// replace the map entry with a fresh copy, so a shallow map copy is a
// consistent snapshot.
type data struct {
	practitioners map[uuid.UUID]*model.Practitioner
	patients      map[uuid.UUID]*model.Patient
	templates     map[uuid.UUID]*model.AvailabilityTemplate
	appointments  map[uuid.UUID]*model.Appointment
}

func newData() *data {
	return &data{
		practitioners: make(map[uuid.UUID]*model.Practitioner),
		patients:      make(map[uuid.UUID]*model.Patient),
		templates:     make(map[uuid.UUID]*model.AvailabilityTemplate),
		appointments:  make(map[uuid.UUID]*model.Appointment),
	}
}

func (d *data) snapshot() *data {
	s := newData()
	for k, v := range d.practitioners {
		s.practitioners[k] = v
	}
	for k, v := range d.patients {
		s.patients[k] = v
	}
	for k, v := range d.templates {
		s.templates[k] = v
	}
	for k, v := range d.appointments {
		s.appointments[k] = v
	}
	return s
}

// backend is what the repositories read from and write to: either the
// store itself or an open transaction.
type backend interface {
	read(fn func(d *data))
	// write runs check and, when it succeeds, apply. apply must not fail.
	write(check func(d *data) error, apply func(d *data)) error
}

type Store struct {
	mu    sync.RWMutex
	data  *data
	locks *keyedMutex
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		data:  newData(),
		locks: newKeyedMutex(),
	}
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(check func(d *data) error, apply func(d *data)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if check != nil {
		if err := check(s.data); err != nil {
			return err
		}
	}
	apply(s.data)
	return nil
}

func (s *Store) Practitioners() repository.PractitionerRepository {
	return &practitionerRepository{b: s}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{b: s}
}

func (s *Store) Availability() repository.AvailabilityRepository {
	return &availabilityRepository{b: s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{b: s}
}

// Atomically holds the practitioner's lock for the whole of fn. fn sees a
// snapshot plus its own writes; the writes are replayed onto the store only
// when fn returns nil.
func (s *Store) Atomically(ctx context.Context, practitionerID uuid.UUID, fn func(tx repository.Repositories) error) error {
	if err := s.locks.Lock(ctx, practitionerID); err != nil {
		return err
	}
	defer s.locks.Unlock(practitionerID)

	s.mu.RLock()
	t := &tx{data: s.data.snapshot()}
	s.mu.RUnlock()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, apply := range t.journal {
		apply(s.data)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// tx is a single-goroutine view used inside Atomically.
type tx struct {
	data    *data
	journal []func(d *data)
}

func (t *tx) read(fn func(d *data)) {
	fn(t.data)
}

func (t *tx) write(check func(d *data) error, apply func(d *data)) error {
	if check != nil {
		if err := check(t.data); err != nil {
			return err
		}
	}
	apply(t.data)
	t.journal = append(t.journal, apply)
	return nil
}

func (t *tx) Practitioners() repository.PractitionerRepository {
	return &practitionerRepository{b: t}
}

func (t *tx) Patients() repository.PatientRepository {
	return &patientRepository{b: t}
}

func (t *tx) Availability() repository.AvailabilityRepository {
	return &availabilityRepository{b: t}
}

func (t *tx) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{b: t}
}
