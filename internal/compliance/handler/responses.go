package handler

import (
	"time"

	"comply/internal/compliance/models"
)

type eventResponse struct {
	ID                 string     `json:"id"`
	BusinessEntityID   string     `json:"business_entity_id"`
	ObligationType     string     `json:"obligation_type"`
	Period             string     `json:"period"`
	DueDate            time.Time  `json:"due_date"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	EstimatedCostCents int64      `json:"estimated_cost_cents"`
	FilingLink         string     `json:"filing_link,omitempty"`
	RemindersSent      int        `json:"reminders_sent"`
	LastReminderSentAt *time.Time `json:"last_reminder_sent_at,omitempty"`
	LastReminderBand   string     `json:"last_reminder_band,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type completeResponse struct {
	Completed eventResponse  `json:"completed"`
	Next      *eventResponse `json:"next,omitempty"`
}

func fromEvent(event *models.Event) eventResponse {
	return eventResponse{
		ID:                 event.ID.String(),
		BusinessEntityID:   event.EntityID.String(),
		ObligationType:     event.ObligationType,
		Period:             event.Period.String(),
		DueDate:            event.DueDate,
		Status:             event.Status.String(),
		Priority:           string(event.Priority),
		EstimatedCostCents: event.EstimatedCostCents,
		FilingLink:         event.FilingLink,
		RemindersSent:      event.RemindersSent,
		LastReminderSentAt: event.LastReminderSentAt,
		LastReminderBand:   event.LastReminderBand.String(),
		CompletedAt:        event.CompletedAt,
	}
}
