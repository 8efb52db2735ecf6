package practitioner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
)

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// Service is the identity lookup for practitioners and patients. Lookups
// are cached because they only feed response and notification display
// fields, never scheduling decisions.
type Service struct {
	store  repository.Store
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(store repository.Store, log *logger.Logger, cfg CacheConfig) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 2 * cfg.TTL
	}
	return &Service{
		store:  store,
		cache:  cache.New(cfg.TTL, cfg.CleanupInterval),
		logger: log,
	}
}

func practitionerKey(id uuid.UUID) string { return "practitioner:" + id.String() }
func patientKey(id uuid.UUID) string      { return "patient:" + id.String() }

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	if v, ok := s.cache.Get(practitionerKey(id)); ok {
		p := *v.(*model.Practitioner)
		return &p, nil
	}
	p, err := s.store.Practitioners().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cached := *p
	s.cache.SetDefault(practitionerKey(id), &cached)
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if v, ok := s.cache.Get(patientKey(id)); ok {
		p := *v.(*model.Patient)
		return &p, nil
	}
	p, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cached := *p
	s.cache.SetDefault(patientKey(id), &cached)
	return p, nil
}

// Activate lets the practitioner accept bookings again.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate makes new bookings for the practitioner fail with a conflict.
// Existing appointments are kept.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id uuid.UUID, active bool) (*model.Practitioner, error) {
	if err := s.store.Practitioners().SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.cache.Delete(practitionerKey(id))

	p, err := s.GetPractitioner(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("practitioner availability changed", "practitioner_id", id.String(), "active", active)
	return p, nil
}

// Describe fills the display fields of a reminder event. Lookup failures
// leave the fields empty.
func (s *Service) Describe(ctx context.Context, evt *model.ReminderEvent) {
	if p, err := s.GetPractitioner(ctx, evt.PractitionerID); err == nil {
		evt.PractitionerName = p.DisplayName()
	}
	if p, err := s.GetPatient(ctx, evt.PatientID); err == nil {
		evt.PatientName = p.FullName()
		evt.Recipient = p.Email
	}
}
