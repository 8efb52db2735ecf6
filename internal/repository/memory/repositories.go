package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/scheduling"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
)

type practitionerRepository struct {
	b backend
}

func (r *practitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stamp(&p.Base)
	stored := *p
	return r.b.write(func(d *data) error {
		if _, ok := d.practitioners[stored.ID]; ok {
			return apperrors.Conflict("practitioner already exists")
		}
		return nil
	}, func(d *data) {
		d.practitioners[stored.ID] = &stored
	})
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	var out *model.Practitioner
	r.b.read(func(d *data) {
		if p, ok := d.practitioners[id]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, apperrors.NotFound("practitioner", nil)
	}
	return out, nil
}

func (r *practitionerRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	now := time.Now()
	return r.b.write(func(d *data) error {
		if _, ok := d.practitioners[id]; !ok {
			return apperrors.NotFound("practitioner", nil)
		}
		return nil
	}, func(d *data) {
		p, ok := d.practitioners[id]
		if !ok {
			return
		}
		c := *p
		c.Active = active
		c.UpdatedAt = now
		d.practitioners[id] = &c
	})
}

type patientRepository struct {
	b backend
}

func (r *patientRepository) Create(ctx context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	return r.b.write(nil, func(d *data) {
		d.patients[stored.ID] = &stored
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var out *model.Patient
	r.b.read(func(d *data) {
		if p, ok := d.patients[id]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, apperrors.NotFound("patient", nil)
	}
	return out, nil
}

type availabilityRepository struct {
	b backend
}

func (r *availabilityRepository) Create(ctx context.Context, t *model.AvailabilityTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	stamp(&t.Base)
	stored := *t
	return r.b.write(nil, func(d *data) {
		d.templates[stored.ID] = &stored
	})
}

func (r *availabilityRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityTemplate, error) {
	var out *model.AvailabilityTemplate
	r.b.read(func(d *data) {
		if t, ok := d.templates[id]; ok {
			c := *t
			out = &c
		}
	})
	if out == nil {
		return nil, apperrors.NotFound("availability template", nil)
	}
	return out, nil
}

func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.b.write(func(d *data) error {
		if _, ok := d.templates[id]; !ok {
			return apperrors.NotFound("availability template", nil)
		}
		return nil
	}, func(d *data) {
		delete(d.templates, id)
	})
}

func (r *availabilityRepository) FindTemplates(ctx context.Context, practitionerID uuid.UUID, day model.DayOfWeek) ([]*model.AvailabilityTemplate, error) {
	return r.collect(func(t *model.AvailabilityTemplate) bool {
		return t.PractitionerID == practitionerID && t.DayOfWeek == day && t.Active
	}), nil
}

func (r *availabilityRepository) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityTemplate, error) {
	return r.collect(func(t *model.AvailabilityTemplate) bool {
		return t.PractitionerID == practitionerID
	}), nil
}

func (r *availabilityRepository) collect(keep func(t *model.AvailabilityTemplate) bool) []*model.AvailabilityTemplate {
	out := make([]*model.AvailabilityTemplate, 0)
	r.b.read(func(d *data) {
		for _, t := range d.templates {
			if keep(t) {
				c := *t
				out = append(out, &c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return dayIndex(out[i].DayOfWeek) < dayIndex(out[j].DayOfWeek)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

type appointmentRepository struct {
	b backend
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var out *model.Appointment
	r.b.read(func(d *data) {
		out = d.appointments[id].Clone()
	})
	if out == nil {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return out, nil
}

func (r *appointmentRepository) Insert(ctx context.Context, a *model.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	stamp(&a.Base)
	stored := a.Clone()
	return r.b.write(func(d *data) error {
		if _, ok := d.appointments[stored.ID]; ok {
			return apperrors.Conflict("appointment already exists")
		}
		return nil
	}, func(d *data) {
		d.appointments[stored.ID] = stored
	})
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	stored := a.Clone()
	return r.b.write(func(d *data) error {
		if _, ok := d.appointments[stored.ID]; !ok {
			return apperrors.NotFound("appointment", nil)
		}
		return nil
	}, func(d *data) {
		d.appointments[stored.ID] = stored
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.b.write(func(d *data) error {
		if _, ok := d.appointments[id]; !ok {
			return apperrors.NotFound("appointment", nil)
		}
		return nil
	}, func(d *data) {
		delete(d.appointments, id)
	})
}

func (r *appointmentRepository) List(ctx context.Context, f *model.AppointmentFilters) ([]*model.Appointment, error) {
	out := r.collect(func(a *model.Appointment) bool {
		return matches(a, f)
	})
	if f != nil && f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, practitionerID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	window := scheduling.NewInterval(start, end)
	return r.collect(func(a *model.Appointment) bool {
		return a.PractitionerID == practitionerID &&
			scheduling.Blocks(a) &&
			window.Overlaps(scheduling.NewInterval(a.StartTime, a.EndTime))
	}), nil
}

func (r *appointmentRepository) FindDue(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return r.collect(func(a *model.Appointment) bool {
		return a.Status.Pending() &&
			!a.ReminderSent &&
			!a.StartTime.Before(from) &&
			a.StartTime.Before(to)
	}), nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	changed := false
	err := r.b.write(func(d *data) error {
		a, ok := d.appointments[id]
		if !ok {
			return apperrors.NotFound("appointment", nil)
		}
		changed = !a.ReminderSent
		return nil
	}, func(d *data) {
		a, ok := d.appointments[id]
		if !ok || a.ReminderSent {
			return
		}
		c := a.Clone()
		c.ReminderSent = true
		sentAt := at
		c.ReminderSentAt = &sentAt
		c.UpdatedAt = at
		d.appointments[id] = c
	})
	return changed, err
}

func (r *appointmentRepository) collect(keep func(a *model.Appointment) bool) []*model.Appointment {
	out := make([]*model.Appointment, 0)
	r.b.read(func(d *data) {
		for _, a := range d.appointments {
			if keep(a) {
				out = append(out, a.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func matches(a *model.Appointment, f *model.AppointmentFilters) bool {
	if f == nil {
		return true
	}
	if f.PractitionerID != uuid.Nil && a.PractitionerID != f.PractitionerID {
		return false
	}
	if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && a.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.StartTime.Before(f.To) {
		return false
	}
	return true
}

func stamp(b *model.Base) {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}

var dayOrder = map[model.DayOfWeek]int{
	model.Monday:    0,
	model.Tuesday:   1,
	model.Wednesday: 2,
	model.Thursday:  3,
	model.Friday:    4,
	model.Saturday:  5,
	model.Sunday:    6,
}

func dayIndex(d model.DayOfWeek) int {
	return dayOrder[d]
}
