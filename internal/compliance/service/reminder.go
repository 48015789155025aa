package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comply/internal/compliance/metrics"
	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
	"comply/internal/notify"
	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

// renagInterval is how often a reminder repeats inside the final bands
// (imminent, overdue) without a band change.
const renagInterval = 24 * time.Hour

// Reminder decides whether an event has newly entered a proximity band and,
// if so, records and emits exactly one reminder for it. The record-and-emit
// pair hangs off a single compare-and-swap on the reminder counter, so two
// workers evaluating the same event can never both fire for the same band.
type Reminder struct {
	store    store.Store
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewReminder(st store.Store, notifier notify.Notifier, logger *slog.Logger, m *metrics.Metrics) (*Reminder, error) {
	if st == nil || notifier == nil {
		return nil, fmt.Errorf("reminder requires store and notifier")
	}
	return &Reminder{store: st, notifier: notifier, logger: logger, metrics: m}, nil
}

// Evaluate is the pure decision: which band the event is in now, and whether
// a reminder should fire. Completed events never fire.
func (r *Reminder) Evaluate(event *models.Event, now time.Time) (domain.ReminderBand, bool) {
	if event.Status.IsTerminal() {
		return domain.BandNone, false
	}

	band := domain.BandFor(event.DueDate, now)
	// An event the sweeper just flipped is overdue regardless of how the
	// day-count rounds, so it takes the overdue band in the same tick.
	if event.Status == domain.StatusOverdue {
		band = domain.BandOverdue
	}
	if band == domain.BandNone {
		return domain.BandNone, false
	}

	if band != event.LastReminderBand {
		return band, true
	}
	if band.Final() {
		if event.LastReminderSentAt == nil {
			return band, true
		}
		if now.Sub(*event.LastReminderSentAt) >= renagInterval {
			return band, true
		}
	}
	return band, false
}

// Process applies Evaluate to a persisted event and fires the reminder when
// due. A lost CAS means another worker got there first; Process re-reads once
// and treats an already-satisfied state as success.
func (r *Reminder) Process(ctx context.Context, event *models.Event, now time.Time) (bool, error) {
	band, fire := r.Evaluate(event, now)
	if !fire {
		return false, nil
	}

	err := r.store.CASUpdateReminderState(ctx, event.ID, event.RemindersSent, event.RemindersSent+1, now, band)
	if errors.Is(err, sentinel.ErrStaleWrite) {
		r.metrics.StaleWrites.Inc()
		fresh, readErr := r.store.GetEvent(ctx, event.ID)
		if readErr != nil {
			return false, fmt.Errorf("re-read after stale reminder write: %w", readErr)
		}
		if _, stillDue := r.Evaluate(fresh, now); !stillDue {
			// The other worker's reminder satisfied this band. Done.
			return false, nil
		}
		// Still due under the fresh state; drop the stale intent and let the
		// next tick pick it up rather than looping here.
		r.logger.DebugContext(ctx, "reminder intent dropped after concurrent update", "event_id", event.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record reminder: %w", err)
	}

	// The CAS win is the right to emit. The produce itself is asynchronous
	// and owned by the delivery service; a local handoff failure is logged,
	// and the final-band re-nag covers the gap.
	reminder := notify.Reminder{
		EventID:            event.ID,
		EntityID:           event.EntityID,
		ObligationType:     event.ObligationType,
		DueDate:            event.DueDate,
		DaysUntilDue:       domain.DaysUntil(event.DueDate, now),
		Band:               band,
		EstimatedCostCents: event.EstimatedCostCents,
		FilingLink:         event.FilingLink,
	}
	if err := r.notifier.Emit(ctx, reminder); err != nil {
		r.logger.ErrorContext(ctx, "reminder emit handoff failed",
			"event_id", event.ID,
			"band", band,
			"error", err,
		)
	}

	r.metrics.RemindersFired.WithLabelValues(band.String()).Inc()
	r.logger.InfoContext(ctx, "reminder fired",
		"event_id", event.ID,
		"entity_id", event.EntityID,
		"band", band,
		"days_until_due", reminder.DaysUntilDue,
	)
	return true, nil
}
