// Package dashboard builds read-only rollups for presentation. It mutates
// nothing: every view is derived from the event store and the policy catalog,
// with a short-TTL Redis cache in front for the hot endpoints.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"comply/internal/catalog"
	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
	"comply/internal/directory"
	"comply/internal/platform/config"
	"comply/internal/platform/redis"
	"comply/pkg/domain"
	derrors "comply/pkg/domain-errors"
)

// StatusCounts is the headline rollup.
type StatusCounts struct {
	Upcoming  int `json:"upcoming"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// UpcomingEvent is one row of the upcoming view, due date ascending.
type UpcomingEvent struct {
	EventID            domain.EventID      `json:"event_id"`
	EntityID           domain.EntityID     `json:"business_entity_id"`
	ObligationType     string              `json:"obligation_type"`
	Period             domain.Period       `json:"period"`
	DueDate            time.Time           `json:"due_date"`
	DaysUntilDue       int                 `json:"days_until_due"`
	Band               domain.ReminderBand `json:"band,omitempty"`
	Priority           models.Priority     `json:"priority"`
	EstimatedCostCents int64               `json:"estimated_cost_cents"`
	FilingLink         string              `json:"filing_link,omitempty"`
}

// OverdueEvent is one row of the overdue view, most overdue first. The
// estimated cost includes the late fee once past the grace period, and
// DissolutionRisk marks events past the jurisdiction's dissolution threat
// window. Both are presentation only; the stored event is untouched.
type OverdueEvent struct {
	EventID            domain.EventID  `json:"event_id"`
	EntityID           domain.EntityID `json:"business_entity_id"`
	ObligationType     string          `json:"obligation_type"`
	Period             domain.Period   `json:"period"`
	DueDate            time.Time       `json:"due_date"`
	DaysOverdue        int             `json:"days_overdue"`
	EstimatedCostCents int64           `json:"estimated_cost_cents"`
	DissolutionRisk    bool            `json:"dissolution_risk"`
	FilingLink         string          `json:"filing_link,omitempty"`
}

// Service aggregates dashboard views.
type Service struct {
	store     store.Store
	catalog   *catalog.Catalog
	directory directory.Directory
	cache     *redis.Client
	logger    *slog.Logger
}

func New(st store.Store, cat *catalog.Catalog, dir directory.Directory, cache *redis.Client, logger *slog.Logger) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("dashboard requires a store")
	}
	return &Service{store: st, catalog: cat, directory: dir, cache: cache, logger: logger}, nil
}

// Summary returns counts by lifecycle status.
func (s *Service) Summary(ctx context.Context) (*StatusCounts, error) {
	if cached, ok := cacheGet[StatusCounts](ctx, s, "comply:dashboard:summary"); ok {
		return cached, nil
	}

	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "count events")
	}

	counts := &StatusCounts{
		Upcoming:  byStatus[domain.StatusUpcoming],
		Overdue:   byStatus[domain.StatusOverdue],
		Completed: byStatus[domain.StatusCompleted],
	}
	for _, n := range byStatus {
		counts.Total += n
	}

	cacheSet(ctx, s, "comply:dashboard:summary", counts)
	return counts, nil
}

// Upcoming returns open upcoming events, due date ascending with ties broken
// by entity ID so output is deterministic.
func (s *Service) Upcoming(ctx context.Context, now time.Time, limit int) ([]UpcomingEvent, error) {
	events, err := s.store.ListUpcoming(ctx, now, normalizeLimit(limit))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list upcoming events")
	}

	out := make([]UpcomingEvent, 0, len(events))
	for _, event := range events {
		days := domain.DaysUntil(event.DueDate, now)
		out = append(out, UpcomingEvent{
			EventID:            event.ID,
			EntityID:           event.EntityID,
			ObligationType:     event.ObligationType,
			Period:             event.Period,
			DueDate:            event.DueDate,
			DaysUntilDue:       days,
			Band:               domain.BandFor(event.DueDate, now),
			Priority:           event.Priority,
			EstimatedCostCents: event.EstimatedCostCents,
			FilingLink:         event.FilingLink,
		})
	}
	return out, nil
}

// Overdue returns overdue events, most overdue first, annotated with late
// fees and dissolution risk from catalog policy.
func (s *Service) Overdue(ctx context.Context, now time.Time, limit int) ([]OverdueEvent, error) {
	events, err := s.store.ListOverdue(ctx, now, normalizeLimit(limit))
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "list overdue events")
	}

	out := make([]OverdueEvent, 0, len(events))
	for _, event := range events {
		row := OverdueEvent{
			EventID:            event.ID,
			EntityID:           event.EntityID,
			ObligationType:     event.ObligationType,
			Period:             event.Period,
			DueDate:            event.DueDate,
			DaysOverdue:        event.DaysOverdue(now),
			EstimatedCostCents: event.EstimatedCostCents,
			FilingLink:         event.FilingLink,
		}
		s.annotate(ctx, event, &row)
		out = append(out, row)
	}
	return out, nil
}

// annotate enriches an overdue row with policy-derived display fields. A
// failed lookup leaves the row unannotated rather than failing the view.
func (s *Service) annotate(ctx context.Context, event *models.Event, row *OverdueEvent) {
	if s.directory == nil || s.catalog == nil {
		return
	}
	entity, err := s.directory.GetEntity(ctx, event.EntityID)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard entity lookup failed",
			"entity_id", event.EntityID, "error", err)
		return
	}
	req, err := s.catalog.Get(entity.State, entity.EntityType)
	if err != nil {
		return
	}

	if row.DaysOverdue > req.GracePeriodDays {
		row.EstimatedCostCents = event.EstimatedCostCents + req.LateFeeCents
	}
	if req.DissolutionThreatDays > 0 && row.DaysOverdue > req.DissolutionThreatDays {
		row.DissolutionRisk = true
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}

func cacheGet[T any](ctx context.Context, s *Service, key string) (*T, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func cacheSet(ctx context.Context, s *Service, key string, v any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, config.DashboardCacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed", "key", key, "error", err)
	}
}
