package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func setup(t *testing.T) (*Service, *memory.Store, *model.Practitioner) {
	t.Helper()
	store := memory.NewStore()
	p := &model.Practitioner{FirstName: "Meredith", LastName: "Grey", Active: true, DefaultDurationMinutes: 30}
	require.NoError(t, store.Practitioners().Create(context.Background(), p))
	return NewService(store, logger.Nop(), metrics.NewNop()), store, p
}

func book(t *testing.T, store *memory.Store, practitionerID uuid.UUID, start, end time.Time, status model.AppointmentStatus) {
	t.Helper()
	require.NoError(t, store.Appointments().Insert(context.Background(), &model.Appointment{
		PractitionerID: practitionerID,
		PatientID:      uuid.New(),
		StartTime:      start,
		EndTime:        end,
		Status:         status,
	}))
}

func starts(slots []model.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Start.Format("15:04")
	}
	return out
}

func TestFreeSlotsMondayMorning(t *testing.T) {
	svc, store, p := setup(t)
	ctx := context.Background()

	_, err := svc.AddAvailabilityTemplate(ctx, p.ID, &model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)

	slots, err := svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}, starts(slots))

	book(t, store, p.ID, at(10, 0), at(10, 30), model.AppointmentStatusScheduled)

	slots, err = svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, starts(slots))
}

func TestFreeSlotsIgnoresCancelledBookings(t *testing.T) {
	svc, store, p := setup(t)
	ctx := context.Background()

	_, err := svc.AddAvailabilityTemplate(ctx, p.ID, &model.AddAvailabilityTemplateRequest{DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	book(t, store, p.ID, at(9, 0), at(9, 30), model.AppointmentStatusCancelled)

	slots, err := svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, starts(slots))
}

func TestFreeSlotsDefaultsAndStride(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	_, err := svc.AddAvailabilityTemplate(ctx, p.ID, &model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "14:00", EndTime: "15:00"})
	require.NoError(t, err)

	slots, err := svc.FreeSlots(ctx, p.ID, monday, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00", "14:30"}, starts(slots))

	slots, err = svc.FreeSlots(ctx, p.ID, monday, 30, 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00", "14:15", "14:30"}, starts(slots))
}

func TestFreeSlotsEmpty(t *testing.T) {
	svc, store, p := setup(t)
	ctx := context.Background()

	slots, err := svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	_, err = svc.AddAvailabilityTemplate(ctx, p.ID, &model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "12:00"})
	require.NoError(t, err)
	require.NoError(t, store.Practitioners().SetActive(ctx, p.ID, false))

	slots, err = svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFreeSlotsErrors(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	_, err := svc.FreeSlots(ctx, uuid.New(), monday, 30, 0)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.FreeSlots(ctx, p.ID, monday, -5, 0)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.FreeSlots(ctx, p.ID, time.Time{}, 30, 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAddAvailabilityTemplateValidation(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.AddAvailabilityTemplateRequest
	}{
		{"bad day", model.AddAvailabilityTemplateRequest{DayOfWeek: "FUNDAY", StartTime: "09:00", EndTime: "10:00"}},
		{"bad start", model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "9am", EndTime: "10:00"}},
		{"end before start", model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "11:00", EndTime: "10:00"}},
		{"empty window", model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddAvailabilityTemplate(ctx, p.ID, &tt.req)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	_, err := svc.AddAvailabilityTemplate(ctx, uuid.New(), &model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRemoveAvailabilityTemplate(t *testing.T) {
	svc, store, p := setup(t)
	ctx := context.Background()

	tmpl, err := svc.AddAvailabilityTemplate(ctx, p.ID, &model.AddAvailabilityTemplateRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	other := &model.Practitioner{FirstName: "Derek", LastName: "Shepherd", Active: true}
	require.NoError(t, store.Practitioners().Create(ctx, other))
	assert.True(t, apperrors.IsNotFound(svc.RemoveAvailabilityTemplate(ctx, other.ID, tmpl.ID)))

	require.NoError(t, svc.RemoveAvailabilityTemplate(ctx, p.ID, tmpl.ID))

	templates, err := svc.ListTemplates(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, templates)

	slots, err := svc.FreeSlots(ctx, p.ID, monday, 30, 0)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
