package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"comply/internal/compliance/metrics"
	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
)

const (
	// sweepHorizon bounds how far ahead of now the sweep scans; the far band
	// starts at 90 days, so nothing beyond it can need attention.
	sweepHorizon = 90 * 24 * time.Hour
	// reconcileLookback bounds the regeneration safety net to recently
	// completed events.
	reconcileLookback = 7 * 24 * time.Hour
)

// Tick is the engine's single periodic entry point. Any external scheduler
// (cron, queue consumer, orchestrator) may call Run; multiple workers may run
// concurrently because all event mutations are conditional writes.
//
// Within one batch, the overdue transition is evaluated before the reminder
// band, so an event that turns overdue in this tick gets its overdue-band
// reminder immediately instead of one cycle later.
type Tick struct {
	store      store.Store
	sweeper    *Sweeper
	reminder   *Reminder
	recurrence *Recurrence
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	batchSize int
	workers   int
}

// TickStats summarizes one batch for logging and tests.
type TickStats struct {
	Processed   int `json:"processed"`
	Overdue     int `json:"overdue"`
	Reminders   int `json:"reminders"`
	Regenerated int `json:"regenerated"`
	Errors      int `json:"errors"`
}

// Add accumulates another batch into the running total.
func (s *TickStats) Add(other TickStats) {
	s.Processed += other.Processed
	s.Overdue += other.Overdue
	s.Reminders += other.Reminders
	s.Regenerated += other.Regenerated
	s.Errors += other.Errors
}

func NewTick(st store.Store, sweeper *Sweeper, reminder *Reminder, recurrence *Recurrence, logger *slog.Logger, m *metrics.Metrics, batchSize, workers int) (*Tick, error) {
	if st == nil || sweeper == nil || reminder == nil || recurrence == nil {
		return nil, fmt.Errorf("tick requires store, sweeper, reminder and recurrence")
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if workers <= 0 {
		workers = 1
	}
	return &Tick{
		store:      st,
		sweeper:    sweeper,
		reminder:   reminder,
		recurrence: recurrence,
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("comply/sweep"),
		batchSize:  batchSize,
		workers:    workers,
	}, nil
}

// Run processes at most one batch of events starting after the cursor and
// returns where to resume. A zero returned cursor means the scan finished;
// the final batch also runs the recurrence reconciliation pass. One event's
// failure never aborts the rest of the batch.
func (t *Tick) Run(ctx context.Context, now time.Time, after store.Cursor) (store.Cursor, TickStats, error) {
	ctx, span := t.tracer.Start(ctx, "sweep.tick")
	defer span.End()
	start := time.Now()

	events, next, err := t.store.ListDueForSweep(ctx, now, sweepHorizon, after, t.batchSize)
	if err != nil {
		return store.Cursor{}, TickStats{}, fmt.Errorf("list sweep batch: %w", err)
	}
	span.SetAttributes(attribute.Int("batch_size", len(events)))

	var overdue, reminders, errored atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, event := range events {
		g.Go(func() error {
			if err := t.processEvent(gctx, event, now, &overdue, &reminders); err != nil {
				errored.Add(1)
				t.metrics.SweepEventErrors.Inc()
				t.logger.ErrorContext(gctx, "sweep event failed",
					"event_id", event.ID,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := TickStats{
		Processed: len(events),
		Overdue:   int(overdue.Load()),
		Reminders: int(reminders.Load()),
		Errors:    int(errored.Load()),
	}
	t.metrics.SweepEventsProcessed.Add(float64(len(events)))

	if next.IsZero() {
		stats.Regenerated = t.reconcile(ctx, now)
	}

	t.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	t.logger.InfoContext(ctx, "sweep batch done",
		"processed", stats.Processed,
		"overdue", stats.Overdue,
		"reminders", stats.Reminders,
		"regenerated", stats.Regenerated,
		"errors", stats.Errors,
		"resume", !next.IsZero(),
	)
	return next, stats, nil
}

func (t *Tick) processEvent(ctx context.Context, event *models.Event, now time.Time, overdue, reminders *atomic.Int64) error {
	// Overdue first: the reminder evaluation must see the post-sweep status.
	swept, err := t.sweeper.MarkOverdueIfDue(ctx, event, now)
	if err != nil {
		return err
	}
	if swept.Status != event.Status {
		overdue.Add(1)
	}

	fired, err := t.reminder.Process(ctx, swept, now)
	if err != nil {
		return err
	}
	if fired {
		reminders.Add(1)
	}
	return nil
}

// reconcile re-runs regeneration for recently completed events that lost
// their successor to a crash between completion and insert.
func (t *Tick) reconcile(ctx context.Context, now time.Time) int {
	orphans, err := t.store.ListCompletedWithoutSuccessor(ctx, now.Add(-reconcileLookback), t.batchSize)
	if err != nil {
		t.logger.ErrorContext(ctx, "reconciliation scan failed", "error", err)
		return 0
	}

	regenerated := 0
	for _, completed := range orphans {
		successor, err := t.recurrence.Regenerate(ctx, completed, now)
		if err != nil {
			t.logger.ErrorContext(ctx, "reconciliation regenerate failed",
				"event_id", completed.ID,
				"error", err,
			)
			continue
		}
		if successor != nil {
			regenerated++
		}
	}
	return regenerated
}
