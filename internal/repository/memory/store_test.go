package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

func newAppointment(practitionerID uuid.UUID, start time.Time, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		PractitionerID: practitionerID,
		PatientID:      uuid.New(),
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		Status:         status,
	}
}

func TestAtomicallyCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	practitionerID := uuid.New()
	apt := newAppointment(practitionerID, time.Now().Add(time.Hour), model.AppointmentStatusScheduled)

	err := store.Atomically(ctx, practitionerID, func(tx repository.Repositories) error {
		if err := tx.Appointments().Insert(ctx, apt); err != nil {
			return err
		}
		// reads inside the unit see its own writes
		got, err := tx.Appointments().Get(ctx, apt.ID)
		require.NoError(t, err)
		assert.Equal(t, apt.StartTime, got.StartTime)

		// the store does not, until commit
		_, err = store.Appointments().Get(ctx, apt.ID)
		assert.True(t, apperrors.IsNotFound(err))
		return nil
	})
	require.NoError(t, err)

	got, err := store.Appointments().Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)
	assert.Equal(t, 0, store.locks.size())
}

func TestAtomicallyDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	practitionerID := uuid.New()
	apt := newAppointment(practitionerID, time.Now().Add(time.Hour), model.AppointmentStatusScheduled)
	boom := errors.New("boom")

	err := store.Atomically(ctx, practitionerID, func(tx repository.Repositories) error {
		require.NoError(t, tx.Appointments().Insert(ctx, apt))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Appointments().Get(ctx, apt.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAtomicallySerializesSamePractitioner(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	practitionerID := uuid.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = store.Atomically(ctx, practitionerID, func(tx repository.Repositories) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := store.Atomically(waitCtx, practitionerID, func(tx repository.Repositories) error {
		t.Fatal("second unit must not run while the first holds the lock")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a different practitioner is not blocked
	err = store.Atomically(ctx, uuid.New(), func(tx repository.Repositories) error { return nil })
	assert.NoError(t, err)

	close(release)
	<-done
	assert.Equal(t, 0, store.locks.size())
}

func TestFindOverlapping(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	practitionerID := uuid.New()
	base := time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

	booked := newAppointment(practitionerID, base, model.AppointmentStatusConfirmed)
	cancelled := newAppointment(practitionerID, base.Add(time.Hour), model.AppointmentStatusCancelled)
	other := newAppointment(uuid.New(), base, model.AppointmentStatusScheduled)
	for _, a := range []*model.Appointment{booked, cancelled, other} {
		require.NoError(t, store.Appointments().Insert(ctx, a))
	}

	found, err := store.Appointments().FindOverlapping(ctx, practitionerID, base.Add(15*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, booked.ID, found[0].ID)

	found, err = store.Appointments().FindOverlapping(ctx, practitionerID, base.Add(30*time.Minute), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindDueAndMarkReminderSent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	practitionerID := uuid.New()

	due := newAppointment(practitionerID, now.Add(24*time.Hour), model.AppointmentStatusScheduled)
	late := newAppointment(practitionerID, now.Add(48*time.Hour), model.AppointmentStatusScheduled)
	for _, a := range []*model.Appointment{due, late} {
		require.NoError(t, store.Appointments().Insert(ctx, a))
	}

	found, err := store.Appointments().FindDue(ctx, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)

	changed, err := store.Appointments().MarkReminderSent(ctx, due.ID, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Appointments().MarkReminderSent(ctx, due.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.Appointments().Get(ctx, due.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderSentAt)
	assert.True(t, now.Equal(*got.ReminderSentAt))

	_, err = store.Appointments().MarkReminderSent(ctx, uuid.New(), now)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	apt := newAppointment(uuid.New(), time.Now(), model.AppointmentStatusScheduled)
	require.NoError(t, store.Appointments().Insert(ctx, apt))

	got, err := store.Appointments().Get(ctx, apt.ID)
	require.NoError(t, err)
	got.Status = model.AppointmentStatusCancelled

	again, err := store.Appointments().Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, again.Status)
}

func TestTemplatesByDay(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	practitionerID := uuid.New()

	afternoon := &model.AvailabilityTemplate{PractitionerID: practitionerID, DayOfWeek: model.Monday, StartTime: model.NewTimeOfDay(14, 0), EndTime: model.NewTimeOfDay(17, 0), Active: true}
	morning := &model.AvailabilityTemplate{PractitionerID: practitionerID, DayOfWeek: model.Monday, StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(12, 0), Active: true}
	inactive := &model.AvailabilityTemplate{PractitionerID: practitionerID, DayOfWeek: model.Monday, StartTime: model.NewTimeOfDay(18, 0), EndTime: model.NewTimeOfDay(19, 0)}
	tuesday := &model.AvailabilityTemplate{PractitionerID: practitionerID, DayOfWeek: model.Tuesday, StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(12, 0), Active: true}
	for _, tmpl := range []*model.AvailabilityTemplate{afternoon, morning, inactive, tuesday} {
		require.NoError(t, store.Availability().Create(ctx, tmpl))
	}

	found, err := store.Availability().FindTemplates(ctx, practitionerID, model.Monday)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, morning.ID, found[0].ID)
	assert.Equal(t, afternoon.ID, found[1].ID)

	all, err := store.Availability().ListByPractitioner(ctx, practitionerID)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, store.Availability().Delete(ctx, morning.ID))
	assert.True(t, apperrors.IsNotFound(store.Availability().Delete(ctx, morning.ID)))
}
