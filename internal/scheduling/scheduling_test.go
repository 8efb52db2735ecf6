package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/internal/model"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func booking(start, end time.Time, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{StartTime: start, EndTime: end, Status: status}
	a.ID = uuid.New()
	return a
}

func template(day model.DayOfWeek, from, to string) *model.AvailabilityTemplate {
	start, _ := model.ParseTimeOfDay(from)
	end, _ := model.ParseTimeOfDay(to)
	return &model.AvailabilityTemplate{DayOfWeek: day, StartTime: start, EndTime: end, Active: true}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", NewInterval(at(10, 0), at(10, 30)), NewInterval(at(10, 0), at(10, 30)), true},
		{"partial", NewInterval(at(10, 0), at(10, 30)), NewInterval(at(10, 15), at(10, 45)), true},
		{"contained", NewInterval(at(9, 0), at(12, 0)), NewInterval(at(10, 0), at(10, 30)), true},
		{"touching end", NewInterval(at(10, 0), at(10, 30)), NewInterval(at(10, 30), at(11, 0)), false},
		{"touching start", NewInterval(at(10, 30), at(11, 0)), NewInterval(at(10, 0), at(10, 30)), false},
		{"disjoint", NewInterval(at(8, 0), at(9, 0)), NewInterval(at(10, 0), at(11, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestHasConflict(t *testing.T) {
	existing := booking(at(10, 0), at(10, 30), model.AppointmentStatusScheduled)
	cancelled := booking(at(11, 0), at(11, 30), model.AppointmentStatusCancelled)
	booked := []*model.Appointment{existing, cancelled}

	t.Run("overlap", func(t *testing.T) {
		assert.True(t, HasConflict(booked, NewInterval(at(10, 15), at(10, 45)), uuid.Nil))
	})

	t.Run("cancelled does not block", func(t *testing.T) {
		assert.False(t, HasConflict(booked, NewInterval(at(11, 0), at(11, 30)), uuid.Nil))
	})

	t.Run("excluded self", func(t *testing.T) {
		assert.False(t, HasConflict(booked, NewInterval(at(10, 15), at(10, 45)), existing.ID))
	})

	t.Run("completed still blocks", func(t *testing.T) {
		done := booking(at(14, 0), at(15, 0), model.AppointmentStatusCompleted)
		assert.True(t, HasConflict([]*model.Appointment{done}, NewInterval(at(14, 30), at(15, 30)), uuid.Nil))
	})
}

func TestFreeSlots(t *testing.T) {
	templates := []*model.AvailabilityTemplate{template(model.Monday, "09:00", "12:00")}
	req := SlotRequest{Date: monday, Duration: 30 * time.Minute}

	t.Run("empty day", func(t *testing.T) {
		slots := FreeSlots(templates, nil, req)
		require.Len(t, slots, 6)
		for i, want := range []time.Time{at(9, 0), at(9, 30), at(10, 0), at(10, 30), at(11, 0), at(11, 30)} {
			assert.True(t, want.Equal(slots[i].Start), "slot %d", i)
			assert.True(t, want.Add(30*time.Minute).Equal(slots[i].End), "slot %d", i)
		}
	})

	t.Run("booking removes slot", func(t *testing.T) {
		booked := []*model.Appointment{booking(at(10, 0), at(10, 30), model.AppointmentStatusScheduled)}
		slots := FreeSlots(templates, booked, req)
		require.Len(t, slots, 5)
		for _, s := range slots {
			assert.False(t, s.Start.Equal(at(10, 0)))
		}
	})

	t.Run("wrong weekday", func(t *testing.T) {
		slots := FreeSlots(templates, nil, SlotRequest{Date: monday.AddDate(0, 0, 1), Duration: 30 * time.Minute})
		assert.NotNil(t, slots)
		assert.Empty(t, slots)
	})

	t.Run("inactive template", func(t *testing.T) {
		inactive := template(model.Monday, "09:00", "12:00")
		inactive.Active = false
		assert.Empty(t, FreeSlots([]*model.AvailabilityTemplate{inactive}, nil, req))
	})

	t.Run("remainder that does not fit is dropped", func(t *testing.T) {
		short := []*model.AvailabilityTemplate{template(model.Monday, "09:00", "10:10")}
		slots := FreeSlots(short, nil, req)
		assert.Len(t, slots, 2)
	})
}

func TestCandidateStartsMergesOverlappingTemplates(t *testing.T) {
	templates := []*model.AvailabilityTemplate{
		template(model.Monday, "14:00", "15:00"),
		template(model.Monday, "09:00", "10:00"),
		template(model.Monday, "09:30", "10:30"),
	}

	starts := CandidateStarts(templates, SlotRequest{Date: monday, Duration: 30 * time.Minute})
	want := []time.Time{at(9, 0), at(9, 30), at(10, 0), at(14, 0), at(14, 30)}
	require.Len(t, starts, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(starts[i]), "start %d: got %s", i, starts[i])
	}
}

func TestCandidateStartsStride(t *testing.T) {
	templates := []*model.AvailabilityTemplate{template(model.Monday, "09:00", "10:00")}

	starts := CandidateStarts(templates, SlotRequest{Date: monday, Duration: 30 * time.Minute, Stride: 15 * time.Minute})
	require.Len(t, starts, 3)
	assert.True(t, at(9, 30).Equal(starts[2]))
}

func TestCandidateStartsUsesDateLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	date := time.Date(2024, time.June, 3, 0, 0, 0, 0, loc)
	templates := []*model.AvailabilityTemplate{template(model.Monday, "09:00", "10:00")}

	starts := CandidateStarts(templates, SlotRequest{Date: date, Duration: time.Hour})
	require.Len(t, starts, 1)
	assert.Equal(t, 9, starts[0].Hour())
	assert.Equal(t, loc, starts[0].Location())
}

func TestTransition(t *testing.T) {
	allowed := map[model.AppointmentStatus][]model.AppointmentStatus{
		model.AppointmentStatusScheduled:  {model.AppointmentStatusConfirmed, model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, model.AppointmentStatusNoShow},
		model.AppointmentStatusConfirmed:  {model.AppointmentStatusInProgress, model.AppointmentStatusCancelled, model.AppointmentStatusNoShow},
		model.AppointmentStatusInProgress: {model.AppointmentStatusCompleted},
	}
	all := []model.AppointmentStatus{
		model.AppointmentStatusScheduled,
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			err := Transition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.True(t, apperrors.IsInvalidTransition(err), "%s -> %s", from, to)
		}
	}
}

func TestTransitionCompletedToScheduled(t *testing.T) {
	err := Transition(model.AppointmentStatusCompleted, model.AppointmentStatusScheduled)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestTransitionUnknownStatus(t *testing.T) {
	err := Transition(model.AppointmentStatusScheduled, model.AppointmentStatus("archived"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestCanReschedule(t *testing.T) {
	assert.True(t, CanReschedule(model.AppointmentStatusScheduled))
	assert.True(t, CanReschedule(model.AppointmentStatusConfirmed))
	assert.False(t, CanReschedule(model.AppointmentStatusInProgress))
	assert.False(t, CanReschedule(model.AppointmentStatusCancelled))
}

func TestDueForReminder(t *testing.T) {
	now := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)

	t.Run("exactly one day ahead is included", func(t *testing.T) {
		a := booking(now.Add(24*time.Hour), now.Add(25*time.Hour), model.AppointmentStatusScheduled)
		assert.True(t, DueForReminder(a, now))
	})

	t.Run("exactly two days ahead is excluded", func(t *testing.T) {
		a := booking(now.Add(48*time.Hour), now.Add(49*time.Hour), model.AppointmentStatusConfirmed)
		assert.False(t, DueForReminder(a, now))
	})

	t.Run("already reminded", func(t *testing.T) {
		a := booking(now.Add(30*time.Hour), now.Add(31*time.Hour), model.AppointmentStatusScheduled)
		a.ReminderSent = true
		assert.False(t, DueForReminder(a, now))
	})

	t.Run("cancelled", func(t *testing.T) {
		a := booking(now.Add(30*time.Hour), now.Add(31*time.Hour), model.AppointmentStatusCancelled)
		assert.False(t, DueForReminder(a, now))
	})
}
