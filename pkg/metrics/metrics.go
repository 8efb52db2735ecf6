package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	AppointmentsCreated     prometheus.Counter
	AppointmentsRescheduled prometheus.Counter
	AppointmentsCancelled   prometheus.Counter
	BookingConflicts        prometheus.Counter
	StatusTransitions       *prometheus.CounterVec
	StorageRetries          prometheus.Counter

	// Availability metrics
	SlotGenerationLatency prometheus.Histogram

	// Reminder metrics
	RemindersDue     prometheus.Counter
	RemindersSent    prometheus.Counter
	RemindersFailed  prometheus.Counter
	ReminderScanTime prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// NewMetrics creates all application metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AppointmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_created_total",
			Help:      "Total number of appointments booked",
		}),
		AppointmentsRescheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_rescheduled_total",
			Help:      "Total number of appointments moved to a new interval",
		}),
		AppointmentsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_cancelled_total",
			Help:      "Total number of cancelled appointments",
		}),
		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the slot was taken",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Total number of appointment status transitions",
		}, []string{"from", "to"}),
		StorageRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "storage_retries_total",
			Help:      "Total number of check-and-write units retried after a serialization failure",
		}),

		SlotGenerationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_generation_duration_seconds",
			Help:      "Time spent computing free slots",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		RemindersDue: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_due_total",
			Help:      "Total number of appointments found due a reminder",
		}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_sent_total",
			Help:      "Total number of reminders dispatched and marked sent",
		}),
		RemindersFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_failed_total",
			Help:      "Total number of reminder dispatches that failed",
		}),
		ReminderScanTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminder_scan_duration_seconds",
			Help:      "Time spent in one reminder scan cycle",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests.
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "test", "")
}
