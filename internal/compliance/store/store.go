// Package store defines the persistence port for compliance events. The core
// never assumes a storage engine: the memory and postgres packages both
// satisfy Store, and cross-worker safety rests entirely on the conditional
// writes declared here.
package store

import (
	"context"
	"time"

	"comply/internal/compliance/models"
	"comply/pkg/domain"
)

// Cursor is a keyset position in the (due_date, id) sweep ordering. The zero
// value starts from the beginning.
type Cursor struct {
	DueDate time.Time
	ID      domain.EventID
}

// IsZero reports whether the cursor points at the start of the ordering.
func (c Cursor) IsZero() bool {
	return c.DueDate.IsZero() && c.ID.IsNil()
}

// Store persists compliance events.
//
// Error contract: stores return pkg/platform/sentinel errors (possibly
// wrapped). ErrStaleWrite means a compare-and-swap lost to a concurrent
// writer; callers re-read and re-evaluate rather than retrying blindly.
type Store interface {
	// InsertIfAbsent stores event unless an open event already occupies its
	// (entity, obligation, period) slot. It returns the stored row and
	// whether this call inserted it; on a lost race the winner's row comes
	// back with inserted=false and no error.
	InsertIfAbsent(ctx context.Context, event *models.Event) (*models.Event, bool, error)

	// FindOpen returns the non-completed event for a slot, or ErrNotFound.
	FindOpen(ctx context.Context, entityID domain.EntityID, obligationType string, period domain.Period) (*models.Event, error)

	// GetEvent returns an event by ID, or ErrNotFound.
	GetEvent(ctx context.Context, id domain.EventID) (*models.Event, error)

	// CASUpdateStatus transitions an event's status only if it still has the
	// expected one. Returns ErrStaleWrite when the stored status differs.
	// A transition to completed also records completedAt.
	CASUpdateStatus(ctx context.Context, id domain.EventID, expected, next domain.EventStatus, at time.Time) error

	// CASUpdateReminderState advances the reminder bookkeeping only if the
	// stored reminder count still matches expectedCount. Returns
	// ErrStaleWrite when another worker already recorded a reminder.
	CASUpdateReminderState(ctx context.Context, id domain.EventID, expectedCount, newCount int, sentAt time.Time, band domain.ReminderBand) error

	// ListDueForSweep returns non-completed events with due dates up to
	// now+horizon, ordered by (due_date, id), starting after the cursor. The
	// returned cursor resumes the scan; a zero cursor means the scan is done.
	ListDueForSweep(ctx context.Context, now time.Time, horizon time.Duration, after Cursor, limit int) ([]*models.Event, Cursor, error)

	// CountByStatus returns event counts grouped by lifecycle status.
	CountByStatus(ctx context.Context) (map[domain.EventStatus]int, error)

	// ListUpcoming returns non-completed events due on or after now, due date
	// ascending, ties broken by entity ID ascending.
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Event, error)

	// ListOverdue returns overdue events ordered most-overdue first.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*models.Event, error)

	// ListByEntity returns all events for one entity, newest period first.
	ListByEntity(ctx context.Context, entityID domain.EntityID) ([]*models.Event, error)

	// ListCompletedWithoutSuccessor returns events completed after the given
	// time whose (entity, obligation) slot has no open event in any period.
	// The sweep tick feeds these to the recurrence regenerator so a crash
	// between completing an event and scheduling its successor heals itself.
	ListCompletedWithoutSuccessor(ctx context.Context, completedAfter time.Time, limit int) ([]*models.Event, error)
}
