package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the compliance engine.
type Metrics struct {
	EventsGenerated      prometheus.Counter
	GenerationConflicts  prometheus.Counter
	RemindersFired       *prometheus.CounterVec
	OverdueTransitions   prometheus.Counter
	RecurrencesScheduled prometheus.Counter
	StaleWrites          prometheus.Counter
	SweepEventsProcessed prometheus.Counter
	SweepEventErrors     prometheus.Counter
	SweepDuration        prometheus.Histogram
}

// New creates the compliance engine metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_events_generated_total",
			Help: "Total compliance events created",
		}),
		GenerationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_generation_conflicts_total",
			Help: "Generation calls that found an existing event for the slot",
		}),
		RemindersFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "comply_reminders_fired_total",
			Help: "Reminders emitted, by proximity band",
		}, []string{"band"}),
		OverdueTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_overdue_transitions_total",
			Help: "Events transitioned from upcoming to overdue",
		}),
		RecurrencesScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_recurrences_scheduled_total",
			Help: "Successor events created for completed recurring obligations",
		}),
		StaleWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_stale_writes_total",
			Help: "Compare-and-swap writes lost to a concurrent worker",
		}),
		SweepEventsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_sweep_events_processed_total",
			Help: "Events examined by sweep ticks",
		}),
		SweepEventErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "comply_sweep_event_errors_total",
			Help: "Events whose sweep processing failed",
		}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "comply_sweep_tick_duration_seconds",
			Help:    "Wall time of one sweep tick batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
