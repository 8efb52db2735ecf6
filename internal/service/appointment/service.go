package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/internal/scheduling"
	apperrors "github.com/jwalitptl/scheduling-api/pkg/errors"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

const (
	MaxReasonLength = 100

	cancellationNotePrefix = "Cancellation reason: "
)

type Config struct {
	// MaxRetries bounds how often a check-and-write unit is re-run after a
	// retryable storage failure.
	MaxRetries int
}

type Service struct {
	store   repository.Store
	logger  *logger.Logger
	metrics *metrics.Metrics
	cfg     Config
	now     func() time.Time
}

func NewService(store repository.Store, log *logger.Logger, m *metrics.Metrics, cfg Config) *Service {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Service{
		store:   store,
		logger:  log,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

// CreateAppointment books [start, end) for a practitioner. The conflict check
// and the insert run as one unit under the practitioner's lock.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var created *model.Appointment
	err := s.atomically(ctx, req.PractitionerID, func(tx repository.Repositories) error {
		practitioner, err := tx.Practitioners().Get(ctx, req.PractitionerID)
		if err != nil {
			return err
		}
		if !practitioner.Active {
			return apperrors.Conflict("practitioner is not accepting bookings")
		}
		if _, err := tx.Patients().Get(ctx, req.PatientID); err != nil {
			return err
		}

		end := req.StartTime.Add(time.Duration(practitioner.ConsultationMinutes()) * time.Minute)
		if req.EndTime != nil {
			end = *req.EndTime
		}
		slot := scheduling.NewInterval(req.StartTime, end)

		if err := s.checkFree(ctx, tx, req.PractitionerID, slot, uuid.Nil); err != nil {
			return err
		}

		tariff := req.Tariff
		if tariff == nil {
			tariff = practitioner.Tariff
		}

		apt := &model.Appointment{
			PractitionerID: req.PractitionerID,
			PatientID:      req.PatientID,
			StartTime:      slot.Start,
			EndTime:        slot.End,
			Status:         model.AppointmentStatusScheduled,
			Reason:         strings.TrimSpace(req.Reason),
			Notes:          req.Notes,
			Tariff:         tariff,
		}
		apt.ID = uuid.New()
		apt.Touch(s.now())

		if err := tx.Appointments().Insert(ctx, apt); err != nil {
			return err
		}
		created = apt
		return nil
	})
	if err != nil {
		s.observeConflict(err)
		return nil, err
	}

	s.metrics.AppointmentsCreated.Inc()
	s.logger.Info("appointment created",
		"appointment_id", created.ID.String(),
		"practitioner_id", created.PractitionerID.String(),
		"start_time", created.StartTime,
	)
	return created, nil
}

// RescheduleAppointment moves a pending appointment to a new interval,
// ignoring its own current interval in the conflict check. The status is
// kept.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	if err := validateInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated *model.Appointment
	err = s.atomically(ctx, current.PractitionerID, func(tx repository.Repositories) error {
		apt, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if !scheduling.CanReschedule(apt.Status) {
			return apperrors.InvalidTransition(string(apt.Status), "rescheduled")
		}

		slot := scheduling.NewInterval(req.StartTime, req.EndTime)
		if err := s.checkFree(ctx, tx, apt.PractitionerID, slot, apt.ID); err != nil {
			return err
		}

		apt.StartTime = slot.Start
		apt.EndTime = slot.End
		apt.Touch(s.now())
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}
		updated = apt
		return nil
	})
	if err != nil {
		s.observeConflict(err)
		return nil, err
	}

	s.metrics.AppointmentsRescheduled.Inc()
	s.logger.Info("appointment rescheduled",
		"appointment_id", updated.ID.String(),
		"start_time", updated.StartTime,
		"end_time", updated.EndTime,
	)
	return updated, nil
}

// UpdateStatus routes a requested status to the matching lifecycle
// operation. Targets absent from the transition table, including
// scheduled, fail with an invalid transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Appointment, error) {
	switch req.Status {
	case model.AppointmentStatusConfirmed:
		return s.ConfirmAppointment(ctx, id)
	case model.AppointmentStatusInProgress:
		return s.StartConsultation(ctx, id)
	case model.AppointmentStatusCompleted:
		return s.EndConsultation(ctx, id)
	case model.AppointmentStatusCancelled:
		return s.CancelAppointment(ctx, id, req.Reason)
	case model.AppointmentStatusNoShow:
		return s.MarkNoShow(ctx, id)
	}
	if !req.Status.Valid() {
		return nil, apperrors.Validationf("unknown appointment status %q", req.Status)
	}
	return s.transition(ctx, id, req.Status, nil)
}

func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusConfirmed, nil)
}

func (s *Service) StartConsultation(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusInProgress, func(a *model.Appointment, now time.Time) {
		a.ConsultationStartedAt = &now
	})
}

func (s *Service) EndConsultation(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusCompleted, func(a *model.Appointment, now time.Time) {
		a.ConsultationEndedAt = &now
	})
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusNoShow, nil)
}

// CancelAppointment requires a reason, stores it and appends it to the
// notes. The interval is released for new bookings at once.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("cancellation reason is required")
	}

	apt, err := s.transition(ctx, id, model.AppointmentStatusCancelled, func(a *model.Appointment, _ time.Time) {
		a.CancelReason = &reason
		a.Notes = appendNote(a.Notes, cancellationNotePrefix+reason)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.AppointmentsCancelled.Inc()
	return apt, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to model.AppointmentStatus, mutate func(a *model.Appointment, now time.Time)) (*model.Appointment, error) {
	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		updated *model.Appointment
		from    model.AppointmentStatus
	)
	err = s.atomically(ctx, current.PractitionerID, func(tx repository.Repositories) error {
		apt, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := scheduling.Transition(apt.Status, to); err != nil {
			return err
		}

		now := s.now()
		from = apt.Status
		apt.Status = to
		if mutate != nil {
			mutate(apt, now)
		}
		apt.Touch(now)
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}
		updated = apt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info("appointment status changed",
		"appointment_id", id.String(),
		"from", string(from),
		"to", string(to),
	)
	return updated, nil
}

// IsSlotAvailable reports whether [start, end) is free for the practitioner.
// exclude, when not uuid.Nil, is left out of the check.
func (s *Service) IsSlotAvailable(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	conflict, err := s.HasConflict(ctx, practitionerID, start, end, exclude)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// HasConflict reports whether [start, end) overlaps any non-cancelled
// appointment of the practitioner. It has no side effects.
func (s *Service) HasConflict(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	if err := validateInterval(start, end); err != nil {
		return false, err
	}
	existing, err := s.store.Appointments().FindOverlapping(ctx, practitionerID, start, end)
	if err != nil {
		return false, err
	}
	return scheduling.HasConflict(existing, scheduling.NewInterval(start, end), exclude), nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.store.Appointments().Get(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters != nil && !filters.From.IsZero() && !filters.To.IsZero() && !filters.From.Before(filters.To) {
		return nil, apperrors.Validation("from must be before to")
	}
	if filters != nil && filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.Validationf("unknown appointment status %q", filters.Status)
	}
	return s.store.Appointments().List(ctx, filters)
}

// PractitionerDay lists every appointment of the practitioner starting on
// date's calendar day, in date's location.
func (s *Service) PractitionerDay(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	if _, err := s.store.Practitioners().Get(ctx, practitionerID); err != nil {
		return nil, err
	}
	from, to := scheduling.DayBounds(date)
	return s.store.Appointments().List(ctx, &model.AppointmentFilters{
		PractitionerID: practitionerID,
		From:           from,
		To:             to,
	})
}

// DeleteAppointment physically removes an appointment. It is an
// administrative operation and performs no lifecycle checks.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.atomically(ctx, current.PractitionerID, func(tx repository.Repositories) error {
		return tx.Appointments().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Warn("appointment deleted", "appointment_id", id.String())
	return nil
}

// DueReminders returns pending appointments starting in [now+24h, now+48h)
// whose reminder has not been sent.
func (s *Service) DueReminders(ctx context.Context, now time.Time) ([]*model.Appointment, error) {
	from, to := scheduling.ReminderRange(now)
	return s.store.Appointments().FindDue(ctx, from, to)
}

// MarkReminderSent sets the reminder flag and timestamp. Calling it again is
// a no-op that returns the unchanged appointment.
func (s *Service) MarkReminderSent(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ReminderSent {
		return current, nil
	}

	var updated *model.Appointment
	err = s.atomically(ctx, current.PractitionerID, func(tx repository.Repositories) error {
		if _, err := tx.Appointments().MarkReminderSent(ctx, id, s.now()); err != nil {
			return err
		}
		apt, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		updated = apt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) checkFree(ctx context.Context, tx repository.Repositories, practitionerID uuid.UUID, slot scheduling.Interval, exclude uuid.UUID) error {
	existing, err := tx.Appointments().FindOverlapping(ctx, practitionerID, slot.Start, slot.End)
	if err != nil {
		return err
	}
	if scheduling.HasConflict(existing, slot, exclude) {
		return apperrors.Conflict("slot unavailable: practitioner already booked in this interval")
	}
	return nil
}

// atomically re-runs the whole unit when storage reports a retryable
// failure, up to MaxRetries extra attempts.
func (s *Service) atomically(ctx context.Context, practitionerID uuid.UUID, fn func(tx repository.Repositories) error) error {
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		err = s.store.Atomically(ctx, practitionerID, fn)
		if err == nil || !apperrors.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < s.cfg.MaxRetries {
			s.metrics.StorageRetries.Inc()
			s.logger.Warn("retrying after storage conflict",
				"practitioner_id", practitionerID.String(),
				"attempt", attempt+1,
				"error", err.Error(),
			)
		}
	}
	if err != nil && apperrors.IsStorage(err) {
		s.logger.Error(err, "storage failure", "practitioner_id", practitionerID.String())
	}
	return err
}

func (s *Service) observeConflict(err error) {
	if apperrors.IsConflict(err) {
		s.metrics.BookingConflicts.Inc()
	}
}

func validateCreate(req *model.CreateAppointmentRequest) error {
	if req == nil {
		return apperrors.Validation("request is required")
	}
	if req.PractitionerID == uuid.Nil {
		return apperrors.Validation("practitioner_id is required")
	}
	if req.PatientID == uuid.Nil {
		return apperrors.Validation("patient_id is required")
	}
	if req.StartTime.IsZero() {
		return apperrors.Validation("start_time is required")
	}
	if req.EndTime != nil {
		if err := validateInterval(req.StartTime, *req.EndTime); err != nil {
			return err
		}
	}
	if len([]rune(strings.TrimSpace(req.Reason))) > MaxReasonLength {
		return apperrors.Validationf("reason must be at most %d characters", MaxReasonLength)
	}
	if req.Tariff != nil && *req.Tariff < 0 {
		return apperrors.Validation("tariff must not be negative")
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.Validation("start and end are required")
	}
	if !start.Before(end) {
		return apperrors.Validation("end must be after start")
	}
	return nil
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}
