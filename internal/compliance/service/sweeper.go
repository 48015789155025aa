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
	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

// Sweeper transitions events past their due date from upcoming to overdue.
// It never touches completed events and never moves anything backwards.
type Sweeper struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewSweeper(st store.Store, logger *slog.Logger, m *metrics.Metrics) (*Sweeper, error) {
	if st == nil {
		return nil, fmt.Errorf("sweeper requires a store")
	}
	return &Sweeper{store: st, logger: logger, metrics: m}, nil
}

// MarkOverdueIfDue flips an upcoming event to overdue when its due date has
// passed. It returns the event as it should be seen by the rest of the tick:
// the flipped copy on success, the fresh stored copy when another worker
// moved it first.
func (s *Sweeper) MarkOverdueIfDue(ctx context.Context, event *models.Event, now time.Time) (*models.Event, error) {
	if event.Status != domain.StatusUpcoming || !now.After(event.DueDate) {
		return event, nil
	}

	err := s.store.CASUpdateStatus(ctx, event.ID, domain.StatusUpcoming, domain.StatusOverdue, now)
	if errors.Is(err, sentinel.ErrStaleWrite) {
		s.metrics.StaleWrites.Inc()
		fresh, readErr := s.store.GetEvent(ctx, event.ID)
		if readErr != nil {
			return nil, fmt.Errorf("re-read after stale status write: %w", readErr)
		}
		// Whatever the concurrent writer did (overdue or completed), the
		// event is no longer upcoming-and-late; that satisfies the goal.
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}

	updated := *event
	updated.Status = domain.StatusOverdue
	updated.UpdatedAt = now

	s.metrics.OverdueTransitions.Inc()
	s.logger.InfoContext(ctx, "event overdue",
		"event_id", event.ID,
		"entity_id", event.EntityID,
		"due_date", event.DueDate.Format(time.DateOnly),
		"days_overdue", updated.DaysOverdue(now),
	)
	return &updated, nil
}
