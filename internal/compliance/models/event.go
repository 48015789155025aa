package models

import (
	"fmt"
	"time"

	"comply/pkg/domain"
)

// Priority is a coarse display weight assigned at generation time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PriorityFor derives a priority from how close the due date already is when
// the event is generated.
func PriorityFor(daysUntilDue int) Priority {
	switch {
	case daysUntilDue <= 30:
		return PriorityHigh
	case daysUntilDue <= 90:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Event is one concrete instance of a filing obligation for one entity and
// one period.
//
// Invariants:
//   - exactly one non-completed event exists per (EntityID, ObligationType,
//     Period); the store's conditional insert enforces it
//   - Status only advances (see domain.EventStatus)
//   - RemindersSent never decreases and LastReminderSentAt only moves forward;
//     both change together under a compare-and-swap on RemindersSent
//
// Completed events are history and are never deleted; the next cycle gets a
// fresh row.
type Event struct {
	ID             domain.EventID
	EntityID       domain.EntityID
	ObligationType string
	Period         domain.Period

	DueDate  time.Time
	Status   domain.EventStatus
	Priority Priority

	EstimatedCostCents int64
	FilingLink         string

	RemindersSent      int
	LastReminderSentAt *time.Time
	LastReminderBand   domain.ReminderBand

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// ObligationKey identifies the (entity, obligation, period) slot an event
// occupies. Two events never share a key while either is open.
func (e *Event) ObligationKey() string {
	return fmt.Sprintf("%s/%s/%s", e.EntityID, e.ObligationType, e.Period)
}

// DaysOverdue reports how many whole days past due the event is at now;
// zero when not yet due.
func (e *Event) DaysOverdue(now time.Time) int {
	if d := domain.DaysUntil(e.DueDate, now); d < 0 {
		return -d
	}
	return 0
}
