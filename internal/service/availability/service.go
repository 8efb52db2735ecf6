package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/internal/scheduling"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

// Service manages weekly availability templates and derives free slots
// from them.
type Service struct {
	store   repository.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(store repository.Store, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, logger: log, metrics: m}
}

func (s *Service) AddAvailabilityTemplate(ctx context.Context, practitionerID uuid.UUID, req *model.AddAvailabilityTemplateRequest) (*model.AvailabilityTemplate, error) {
	day, err := model.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	start, err := model.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	end, err := model.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if start >= end {
		return nil, apperrors.Validation("start_time must be before end_time")
	}

	if _, err := s.store.Practitioners().Get(ctx, practitionerID); err != nil {
		return nil, err
	}

	tmpl := &model.AvailabilityTemplate{
		PractitionerID: practitionerID,
		DayOfWeek:      day,
		StartTime:      start,
		EndTime:        end,
		Active:         true,
	}
	tmpl.ID = uuid.New()
	tmpl.Touch(time.Now())

	if err := s.store.Availability().Create(ctx, tmpl); err != nil {
		return nil, err
	}

	s.logger.Info("availability template added",
		"practitioner_id", practitionerID.String(),
		"template", tmpl.String(),
	)
	return tmpl, nil
}

// RemoveAvailabilityTemplate deletes a template owned by practitionerID.
// Existing appointments are left untouched.
func (s *Service) RemoveAvailabilityTemplate(ctx context.Context, practitionerID, templateID uuid.UUID) error {
	tmpl, err := s.store.Availability().Get(ctx, templateID)
	if err != nil {
		return err
	}
	if tmpl.PractitionerID != practitionerID {
		return apperrors.NotFound("availability template", nil)
	}
	if err := s.store.Availability().Delete(ctx, templateID); err != nil {
		return err
	}

	s.logger.Info("availability template removed",
		"practitioner_id", practitionerID.String(),
		"template_id", templateID.String(),
	)
	return nil
}

func (s *Service) ListTemplates(ctx context.Context, practitionerID uuid.UUID) ([]*model.AvailabilityTemplate, error) {
	if _, err := s.store.Practitioners().Get(ctx, practitionerID); err != nil {
		return nil, err
	}
	return s.store.Availability().ListByPractitioner(ctx, practitionerID)
}

// FreeSlots enumerates bookable slots of durationMinutes on date's weekday.
// A zero duration uses the practitioner's default; a zero stride uses the
// duration. Slots are computed fresh on every call.
func (s *Service) FreeSlots(ctx context.Context, practitionerID uuid.UUID, date time.Time, durationMinutes, strideMinutes int) ([]model.TimeSlot, error) {
	if durationMinutes < 0 {
		return nil, apperrors.Validation("duration must not be negative")
	}
	if strideMinutes < 0 {
		return nil, apperrors.Validation("stride must not be negative")
	}
	if date.IsZero() {
		return nil, apperrors.Validation("date is required")
	}

	started := time.Now()
	defer func() {
		s.metrics.SlotGenerationLatency.Observe(time.Since(started).Seconds())
	}()

	practitioner, err := s.store.Practitioners().Get(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	if !practitioner.Active {
		return []model.TimeSlot{}, nil
	}
	if durationMinutes == 0 {
		durationMinutes = practitioner.ConsultationMinutes()
	}

	templates, err := s.store.Availability().FindTemplates(ctx, practitionerID, model.DayOf(date))
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return []model.TimeSlot{}, nil
	}

	dayStart, dayEnd := scheduling.DayBounds(date)
	booked, err := s.store.Appointments().FindOverlapping(ctx, practitionerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return scheduling.FreeSlots(templates, booked, scheduling.SlotRequest{
		Date:     date,
		Duration: time.Duration(durationMinutes) * time.Minute,
		Stride:   time.Duration(strideMinutes) * time.Minute,
	}), nil
}
