package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository/memory"
	"github.com/jwalitptl/scheduling-api/internal/service/appointment"
	"github.com/jwalitptl/scheduling-api/internal/service/practitioner"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

var scanNow = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	sent   []*model.ReminderEvent
	failOn map[uuid.UUID]bool
}

func (d *recordingDispatcher) Send(_ context.Context, evt *model.ReminderEvent) error {
	if d.failOn[evt.AppointmentID] {
		return errors.New("broker unavailable")
	}
	d.sent = append(d.sent, evt)
	return nil
}

type scanFixture struct {
	store        *memory.Store
	practitioner *model.Practitioner
	patient      *model.Patient
	scanner      *ReminderScanner
	dispatcher   *recordingDispatcher
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	p := &model.Practitioner{FirstName: "James", LastName: "Wilson", Active: true}
	require.NoError(t, store.Practitioners().Create(ctx, p))
	patient := &model.Patient{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	require.NoError(t, store.Patients().Create(ctx, patient))

	appointments := appointment.NewService(store, logger.Nop(), metrics.NewNop(), appointment.Config{MaxRetries: 1})
	lookups := practitioner.NewService(store, logger.Nop(), practitioner.CacheConfig{})
	dispatcher := &recordingDispatcher{failOn: map[uuid.UUID]bool{}}

	scanner := NewReminderScanner(appointments, dispatcher, lookups, logger.Nop(), metrics.NewNop())
	scanner.now = func() time.Time { return scanNow }

	return &scanFixture{store: store, practitioner: p, patient: patient, scanner: scanner, dispatcher: dispatcher}
}

func (f *scanFixture) insert(t *testing.T, startIn time.Duration, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	start := scanNow.Add(startIn)
	a := &model.Appointment{
		PractitionerID: f.practitioner.ID,
		PatientID:      f.patient.ID,
		StartTime:      start,
		EndTime:        start.Add(30 * time.Minute),
		Status:         status,
	}
	require.NoError(t, f.store.Appointments().Insert(context.Background(), a))
	return a
}

func TestRunOnceSendsDueReminders(t *testing.T) {
	f := newScanFixture(t)
	ctx := context.Background()

	due := f.insert(t, 30*time.Hour, model.AppointmentStatusScheduled)
	confirmed := f.insert(t, 24*time.Hour, model.AppointmentStatusConfirmed)
	f.insert(t, 2*time.Hour, model.AppointmentStatusScheduled)
	f.insert(t, 48*time.Hour, model.AppointmentStatusScheduled)
	f.insert(t, 36*time.Hour, model.AppointmentStatusCancelled)

	report, err := f.scanner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Due: 2, Sent: 2}, report)

	require.Len(t, f.dispatcher.sent, 2)
	evt := f.dispatcher.sent[0]
	assert.Equal(t, confirmed.ID, evt.AppointmentID)
	assert.Equal(t, "Dr. James Wilson", evt.PractitionerName)
	assert.Equal(t, "Jane Doe", evt.PatientName)
	assert.Equal(t, "jane@example.com", evt.Recipient)
	assert.Equal(t, scanNow, evt.CreatedAt)

	stored, err := f.store.Appointments().Get(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReminderSent)
	assert.NotNil(t, stored.ReminderSentAt)

	// already flagged appointments are not picked up twice
	report, err = f.scanner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{}, report)
	assert.Len(t, f.dispatcher.sent, 2)
}

func TestRunOnceLeavesFailedRemindersForNextCycle(t *testing.T) {
	f := newScanFixture(t)
	ctx := context.Background()

	ok := f.insert(t, 25*time.Hour, model.AppointmentStatusScheduled)
	failing := f.insert(t, 26*time.Hour, model.AppointmentStatusScheduled)
	f.dispatcher.failOn[failing.ID] = true

	report, err := f.scanner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Due: 2, Sent: 1, Failed: 1}, report)

	stored, err := f.store.Appointments().Get(ctx, failing.ID)
	require.NoError(t, err)
	assert.False(t, stored.ReminderSent)

	delete(f.dispatcher.failOn, failing.ID)
	report, err = f.scanner.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Due: 1, Sent: 1}, report)
	assert.Equal(t, []uuid.UUID{ok.ID, failing.ID}, []uuid.UUID{f.dispatcher.sent[0].AppointmentID, f.dispatcher.sent[1].AppointmentID})
}

func TestRunOnceStopsOnCancelledContext(t *testing.T) {
	f := newScanFixture(t)
	f.insert(t, 30*time.Hour, model.AppointmentStatusScheduled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.scanner.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Sent)
	assert.Empty(t, f.dispatcher.sent)
}
