package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
)

// SlotRequest describes one free-slot enumeration.
type SlotRequest struct {
	Date     time.Time
	Duration time.Duration
	// Stride between consecutive candidate starts. Zero means Duration.
	Stride time.Duration
}

// CandidateStarts walks every active template that applies to req.Date and
// emits start times at a fixed stride while start+duration fits before the
// template end. The result is sorted ascending with duplicates removed, so
// overlapping templates are tolerated.
func CandidateStarts(templates []*model.AvailabilityTemplate, req SlotRequest) []time.Time {
	if req.Duration <= 0 {
		return nil
	}
	stride := req.Stride
	if stride <= 0 {
		stride = req.Duration
	}
	day := model.DayOf(req.Date)

	seen := make(map[int64]struct{})
	var starts []time.Time
	for _, t := range templates {
		if !t.Active || t.DayOfWeek != day || t.StartTime >= t.EndTime {
			continue
		}
		windowEnd := t.EndTime.On(req.Date)
		for s := t.StartTime.On(req.Date); !s.Add(req.Duration).After(windowEnd); s = s.Add(stride) {
			key := s.UnixNano()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			starts = append(starts, s)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts
}

// FreeSlots drops every candidate that would overlap a blocking appointment.
// An empty result means no availability, not an error.
func FreeSlots(templates []*model.AvailabilityTemplate, booked []*model.Appointment, req SlotRequest) []model.TimeSlot {
	slots := make([]model.TimeSlot, 0)
	for _, start := range CandidateStarts(templates, req) {
		candidate := NewInterval(start, start.Add(req.Duration))
		if HasConflict(booked, candidate, uuid.Nil) {
			continue
		}
		slots = append(slots, model.TimeSlot{Start: candidate.Start, End: candidate.End})
	}
	return slots
}

// DayBounds returns midnight of date and the following midnight, in date's
// location.
func DayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}
