// Package service implements the compliance engine's decision logic:
// event generation, reminder scheduling, overdue sweeping, and recurrence.
// Everything stateful goes through the store port; the services themselves
// hold no mutable state and are safe to share across workers.
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

// Generator creates compliance events. Create is idempotent: any number of
// calls with the same (entity, obligation, period) yields exactly one stored
// row.
type Generator struct {
	catalog   *catalog.Catalog
	directory directory.Directory
	store     store.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewGenerator(cat *catalog.Catalog, dir directory.Directory, st store.Store, logger *slog.Logger, m *metrics.Metrics) (*Generator, error) {
	if cat == nil || dir == nil || st == nil {
		return nil, fmt.Errorf("generator requires catalog, directory and store")
	}
	return &Generator{catalog: cat, directory: dir, store: st, logger: logger, metrics: m}, nil
}

// Create resolves policy for the entity, computes the due date, and inserts
// the event unless its slot is already occupied. Losing an insert race is
// success: the winner's row comes back.
func (g *Generator) Create(ctx context.Context, entityID domain.EntityID, obligationType string, period domain.Period, now time.Time) (*models.Event, error) {
	if entityID.IsNil() {
		return nil, derrors.New(derrors.CodeBadRequest, "entity id is required")
	}

	entity, err := g.directory.GetEntity(ctx, entityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.Wrap(err, derrors.CodeNotFound, "entity not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeUnavailable, "entity directory unavailable")
	}

	req, err := g.catalog.Get(entity.State, entity.EntityType)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeNotFound,
			fmt.Sprintf("no active requirement for (%s, %s)", entity.State, entity.EntityType))
	}
	if obligationType == "" {
		obligationType = req.ObligationType
	}
	if obligationType != req.ObligationType {
		return nil, derrors.Newf(derrors.CodeNotFound, "no requirement for obligation %q", obligationType)
	}
	if period == "" {
		period = domain.PeriodFor(req.Frequency, now)
	}
	if !period.IsValid() {
		return nil, derrors.Newf(derrors.CodeBadRequest, "invalid period %q", period)
	}

	due, err := duedate.ForPeriod(req, entity.FormationDate, period, now)
	if err != nil {
		// Misconfigured policy poisons only this (state, entityType) pair.
		g.logger.ErrorContext(ctx, "requirement misconfigured, skipping generation",
			"state", req.State,
			"entity_type", req.EntityType,
			"error", err,
		)
		return nil, derrors.Wrap(err, derrors.CodeInvalidInput, "requirement misconfigured")
	}

	event := &models.Event{
		ID:                 domain.NewEventID(),
		EntityID:           entityID,
		ObligationType:     obligationType,
		Period:             period,
		DueDate:            due,
		Status:             domain.StatusUpcoming,
		Priority:           models.PriorityFor(domain.DaysUntil(due, now)),
		EstimatedCostCents: req.FilingFeeCents,
		FilingLink:         req.FilingLink,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	stored, inserted, err := g.store.InsertIfAbsent(ctx, event)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "store event")
	}

	if inserted {
		g.metrics.EventsGenerated.Inc()
		g.logger.InfoContext(ctx, "compliance event generated",
			"event_id", stored.ID,
			"entity_id", entityID,
			"obligation", obligationType,
			"period", period,
			"due_date", stored.DueDate.Format(time.DateOnly),
		)
	} else {
		g.metrics.GenerationConflicts.Inc()
	}
	return stored, nil
}
