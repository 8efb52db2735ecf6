package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/metrics"
)

type ReminderSource interface {
	DueReminders(ctx context.Context, now time.Time) ([]*model.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
}

type Dispatcher interface {
	Send(ctx context.Context, evt *model.ReminderEvent) error
}

// Describer fills display fields of an event before dispatch.
type Describer interface {
	Describe(ctx context.Context, evt *model.ReminderEvent)
}

// ScanReport summarizes one scan cycle.
type ScanReport struct {
	Due    int `json:"due"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ReminderScanner dispatches a reminder for every appointment in the
// reminder window and marks it sent. A failed dispatch leaves the flag
// unset so the next cycle retries it.
type ReminderScanner struct {
	source     ReminderSource
	dispatcher Dispatcher
	describer  Describer
	logger     *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewReminderScanner(source ReminderSource, dispatcher Dispatcher, describer Describer, log *logger.Logger, m *metrics.Metrics) *ReminderScanner {
	return &ReminderScanner{
		source:     source,
		dispatcher: dispatcher,
		describer:  describer,
		logger:     log,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *ReminderScanner) Name() string { return "reminder-scanner" }

func (s *ReminderScanner) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}

func (s *ReminderScanner) RunOnce(ctx context.Context) (ScanReport, error) {
	timer := prometheus.NewTimer(s.metrics.ReminderScanTime)
	defer timer.ObserveDuration()

	now := s.now()
	due, err := s.source.DueReminders(ctx, now)
	if err != nil {
		return ScanReport{}, fmt.Errorf("failed to load due reminders: %w", err)
	}

	report := ScanReport{Due: len(due)}
	s.metrics.RemindersDue.Add(float64(len(due)))

	for _, apt := range due {
		if ctx.Err() != nil {
			break
		}
		if err := s.remind(ctx, apt, now); err != nil {
			report.Failed++
			s.metrics.RemindersFailed.Inc()
			s.logger.Error(err, "failed to send reminder", "appointment_id", apt.ID.String())
			continue
		}
		report.Sent++
		s.metrics.RemindersSent.Inc()
	}

	s.logger.Info("reminder scan finished", "due", report.Due, "sent", report.Sent, "failed", report.Failed)
	return report, ctx.Err()
}

func (s *ReminderScanner) remind(ctx context.Context, apt *model.Appointment, now time.Time) error {
	evt := model.NewReminderEvent(apt, now)
	if s.describer != nil {
		s.describer.Describe(ctx, evt)
	}
	if err := s.dispatcher.Send(ctx, evt); err != nil {
		return err
	}
	if _, err := s.source.MarkReminderSent(ctx, apt.ID); err != nil {
		return fmt.Errorf("reminder sent but not recorded: %w", err)
	}
	return nil
}
