// Package notify is the fire-and-forget port to the notification delivery
// service. The engine only says that a reminder is due and which band it is
// in; channel selection, retries, and delivery live on the other side.
package notify

import (
	"context"
	"time"

	"comply/pkg/domain"
)

// Reminder is the record handed to the delivery service.
type Reminder struct {
	EventID            domain.EventID     `json:"event_id"`
	EntityID           domain.EntityID    `json:"business_entity_id"`
	ObligationType     string             `json:"obligation_type"`
	DueDate            time.Time          `json:"due_date"`
	DaysUntilDue       int                `json:"days_until_due"`
	Band               domain.ReminderBand `json:"band"`
	EstimatedCostCents int64              `json:"estimated_cost_cents"`
	FilingLink         string             `json:"filing_link,omitempty"`
}

// Notifier emits reminder-needed records. Emit must not block on delivery;
// an error only means the record could not be handed off locally.
type Notifier interface {
	Emit(ctx context.Context, reminder Reminder) error
}
