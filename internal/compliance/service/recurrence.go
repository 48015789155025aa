package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comply/internal/catalog"
	"comply/internal/compliance/metrics"
	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
	"comply/internal/directory"
	"comply/internal/duedate"
	"comply/pkg/domain"
	derrors "comply/pkg/domain-errors"
	"comply/pkg/platform/sentinel"
)

// Recurrence completes events and schedules the next occurrence of recurring
// obligations. At any moment a recurring obligation has exactly one open
// forward-looking event; the store's conditional insert keeps that true even
// when completion and regeneration race across workers.
type Recurrence struct {
	catalog   *catalog.Catalog
	directory directory.Directory
	store     store.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewRecurrence(cat *catalog.Catalog, dir directory.Directory, st store.Store, logger *slog.Logger, m *metrics.Metrics) (*Recurrence, error) {
	if cat == nil || dir == nil || st == nil {
		return nil, fmt.Errorf("recurrence requires catalog, directory and store")
	}
	return &Recurrence{catalog: cat, directory: dir, store: st, logger: logger, metrics: m}, nil
}

// Complete marks an event completed and, for recurring obligations, schedules
// the next occurrence. Completing an already-completed event is a no-op
// success. Returns the completed event and the successor, if one was created.
func (rc *Recurrence) Complete(ctx context.Context, eventID domain.EventID, now time.Time) (*models.Event, *models.Event, error) {
	event, err := rc.store.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, derrors.Wrap(err, derrors.CodeNotFound, "event not found")
		}
		return nil, nil, derrors.Wrap(err, derrors.CodeInternal, "load event")
	}

	if event.Status != domain.StatusCompleted {
		if err := rc.markCompleted(ctx, event, now); err != nil {
			return nil, nil, err
		}
		completedAt := now
		event.Status = domain.StatusCompleted
		event.CompletedAt = &completedAt
		event.UpdatedAt = now
	}

	next, err := rc.Regenerate(ctx, event, now)
	if err != nil {
		// The completion stands; regeneration is retried by the sweep tick's
		// reconciliation pass.
		rc.logger.ErrorContext(ctx, "successor scheduling failed, reconciliation will retry",
			"event_id", event.ID,
			"error", err,
		)
		return event, nil, nil
	}
	return event, next, nil
}

// markCompleted CASes the event into completed from whatever non-terminal
// status it currently holds, re-reading once if a sweeper moved it meanwhile.
func (rc *Recurrence) markCompleted(ctx context.Context, event *models.Event, now time.Time) error {
	err := rc.store.CASUpdateStatus(ctx, event.ID, event.Status, domain.StatusCompleted, now)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sentinel.ErrStaleWrite) {
		return derrors.Wrap(err, derrors.CodeInternal, "complete event")
	}

	rc.metrics.StaleWrites.Inc()
	fresh, readErr := rc.store.GetEvent(ctx, event.ID)
	if readErr != nil {
		return derrors.Wrap(readErr, derrors.CodeInternal, "re-read after stale completion")
	}
	if fresh.Status == domain.StatusCompleted {
		return nil
	}
	// One re-evaluation with the fresh status (upcoming may have become
	// overdue under us); a second failure is surfaced, not looped on.
	if err := rc.store.CASUpdateStatus(ctx, event.ID, fresh.Status, domain.StatusCompleted, now); err != nil {
		return derrors.Wrap(err, derrors.CodeConflict, "event moved concurrently")
	}
	return nil
}

// Regenerate schedules the next occurrence for a completed recurring event.
// It returns nil without error when no successor is warranted: one-time
// obligations, next due date not in the future, or a successor already open.
func (rc *Recurrence) Regenerate(ctx context.Context, completed *models.Event, now time.Time) (*models.Event, error) {
	entity, err := rc.directory.GetEntity(ctx, completed.EntityID)
	if err != nil {
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	req, err := rc.catalog.Get(entity.State, entity.EntityType)
	if err != nil {
		// Requirement retired since the event was generated; nothing recurs.
		rc.logger.WarnContext(ctx, "no active requirement, skipping regeneration",
			"event_id", completed.ID,
			"state", entity.State,
			"entity_type", entity.EntityType,
		)
		return nil, nil
	}
	if !req.Frequency.Recurring() {
		return nil, nil
	}

	nextPeriod := completed.Period.Next(req.Frequency)
	nextDue, err := duedate.ForPeriod(req, entity.FormationDate, nextPeriod, now)
	if err != nil {
		return nil, fmt.Errorf("compute successor due date: %w", err)
	}
	if !nextDue.After(now) {
		return nil, nil
	}

	successor := &models.Event{
		ID:                 domain.NewEventID(),
		EntityID:           completed.EntityID,
		ObligationType:     completed.ObligationType,
		Period:             nextPeriod,
		DueDate:            nextDue,
		Status:             domain.StatusUpcoming,
		Priority:           models.PriorityFor(domain.DaysUntil(nextDue, now)),
		EstimatedCostCents: req.FilingFeeCents,
		FilingLink:         req.FilingLink,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	stored, inserted, err := rc.store.InsertIfAbsent(ctx, successor)
	if err != nil {
		return nil, fmt.Errorf("store successor: %w", err)
	}
	if !inserted {
		// Another worker already regenerated; theirs is the one open event.
		return stored, nil
	}

	rc.metrics.RecurrencesScheduled.Inc()
	rc.logger.InfoContext(ctx, "successor event scheduled",
		"completed_event_id", completed.ID,
		"successor_event_id", stored.ID,
		"period", nextPeriod,
		"due_date", stored.DueDate.Format(time.DateOnly),
	)
	return stored, nil
}
