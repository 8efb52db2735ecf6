package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/scheduling-api/internal/email"
	"github.com/jwalitptl/scheduling-api/internal/model"
	"github.com/jwalitptl/scheduling-api/pkg/circuitbreaker"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/messaging"
)

const (
	EventTypeReminder = "appointment.reminder"

	ChannelLog   = "log"
	ChannelEmail = "email"
	ChannelRedis = "redis"
	ChannelKafka = "kafka"
)

// ErrNoRecipient is returned by channels that need a patient address when
// the event carries none. It does not count against the circuit breaker.
var ErrNoRecipient = errors.New("reminder has no recipient")

// Notifier delivers one reminder over a single channel.
type Notifier interface {
	Notify(ctx context.Context, evt *model.ReminderEvent) error
}

type logNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{logger: log}
}

func (n *logNotifier) Notify(_ context.Context, evt *model.ReminderEvent) error {
	n.logger.Info("appointment reminder",
		"appointment_id", evt.AppointmentID.String(),
		"practitioner", evt.PractitionerName,
		"patient", evt.PatientName,
		"start_time", evt.StartTime.Format(time.RFC3339),
	)
	return nil
}

type emailNotifier struct {
	email email.Service
}

func NewEmailNotifier(svc email.Service) Notifier {
	return &emailNotifier{email: svc}
}

func (n *emailNotifier) Notify(ctx context.Context, evt *model.ReminderEvent) error {
	if evt.Recipient == "" {
		return ErrNoRecipient
	}
	return n.email.SendCustom(ctx, evt.Recipient, "Appointment reminder", reminderBody(evt))
}

func reminderBody(evt *model.ReminderEvent) string {
	who := evt.PractitionerName
	if who == "" {
		who = "your practitioner"
	}
	greeting := "Hello"
	if evt.PatientName != "" {
		greeting = "Hello " + evt.PatientName
	}
	return fmt.Sprintf("%s,\n\nThis is a reminder of your appointment with %s on %s from %s to %s.\n",
		greeting,
		who,
		evt.StartTime.Format("Monday 2 January 2006"),
		evt.StartTime.Format("15:04"),
		evt.EndTime.Format("15:04"),
	)
}

type brokerNotifier struct {
	broker messaging.Broker
	topic  string
}

// NewBrokerNotifier publishes reminders keyed by appointment id, so every
// event for one appointment keeps its order on partitioned brokers.
func NewBrokerNotifier(broker messaging.Broker, topic string) Notifier {
	if topic == "" {
		topic = EventTypeReminder
	}
	return &brokerNotifier{broker: broker, topic: topic}
}

func (n *brokerNotifier) Notify(ctx context.Context, evt *model.ReminderEvent) error {
	return n.broker.Publish(ctx, n.topic, &messaging.Message{
		ID:         evt.ID.String(),
		Type:       EventTypeReminder,
		Key:        evt.AppointmentID.String(),
		OccurredAt: evt.CreatedAt,
		Payload:    evt,
	})
}

type Config struct {
	Channel         string
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	SendTimeout     time.Duration
}

// Service dispatches reminders through one notifier guarded by a circuit
// breaker and a per-send timeout.
type Service struct {
	notifier Notifier
	breaker  *circuitbreaker.CircuitBreaker
	timeout  time.Duration
	channel  string
	logger   *logger.Logger
}

func NewService(n Notifier, cfg Config, log *logger.Logger) *Service {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	s := &Service{
		notifier: n,
		timeout:  cfg.SendTimeout,
		channel:  cfg.Channel,
		logger:   log,
	}
	s.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "notifier-" + cfg.Channel,
		MaxFailures: cfg.BreakerFailures,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoRecipient)
		},
		OnStateChange: func(name, from, to string) {
			log.Warn("notifier circuit breaker state changed", "breaker", name, "from", from, "to", to)
		},
	})
	return s
}

// Send delivers evt. A nil error means the channel accepted the reminder.
func (s *Service) Send(ctx context.Context, evt *model.ReminderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.breaker.Execute(func() error {
		return s.notifier.Notify(ctx, evt)
	})
	if err != nil {
		return fmt.Errorf("%s notifier: %w", s.channel, err)
	}
	s.logger.Debug("reminder dispatched", "channel", s.channel, "appointment_id", evt.AppointmentID.String())
	return nil
}

func (s *Service) BreakerState() string {
	return s.breaker.State()
}
