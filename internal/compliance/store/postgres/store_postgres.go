// Package postgres is the relational Store adapter. All concurrency control
// is expressed as conditional writes so the adapter stays lock-free and safe
// across worker processes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
	"comply/internal/platform/postgres"
	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

type Store struct {
	pool *postgres.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool *postgres.Pool) *Store {
	return &Store{pool: pool}
}

const eventColumns = `
	id, entity_id, obligation_type, period, due_date, status, priority,
	estimated_cost_cents, filing_link, reminders_sent, last_reminder_sent_at,
	last_reminder_band, created_at, updated_at, completed_at`

func (s *Store) InsertIfAbsent(ctx context.Context, event *models.Event) (*models.Event, bool, error) {
	query := `
		INSERT INTO compliance_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (entity_id, obligation_type, period) WHERE status <> 'completed'
		DO NOTHING
		RETURNING ` + eventColumns

	row := s.pool.QueryRow(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.EntityID),
		event.ObligationType,
		string(event.Period),
		event.DueDate,
		string(event.Status),
		string(event.Priority),
		event.EstimatedCostCents,
		event.FilingLink,
		event.RemindersSent,
		event.LastReminderSentAt,
		string(event.LastReminderBand),
		event.CreatedAt,
		event.UpdatedAt,
		event.CompletedAt,
	)

	inserted, err := scanEvent(row)
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert event: %w", err)
	}

	// Lost the race (or the slot was already filled): hand back the winner.
	existing, err := s.FindOpen(ctx, event.EntityID, event.ObligationType, event.Period)
	if err != nil {
		return nil, false, fmt.Errorf("insert event, fetch winner: %w", err)
	}
	return existing, false, nil
}

func (s *Store) FindOpen(ctx context.Context, entityID domain.EntityID, obligationType string, period domain.Period) (*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events
		WHERE entity_id = $1 AND obligation_type = $2 AND period = $3
		  AND status <> 'completed'`

	event, err := scanEvent(s.pool.QueryRow(ctx, query, uuid.UUID(entityID), obligationType, string(period)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("open event for %s/%s/%s: %w", entityID, obligationType, period, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find open event: %w", err)
	}
	return event, nil
}

func (s *Store) GetEvent(ctx context.Context, id domain.EventID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM compliance_events WHERE id = $1`

	event, err := scanEvent(s.pool.QueryRow(ctx, query, uuid.UUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *Store) CASUpdateStatus(ctx context.Context, id domain.EventID, expected, next domain.EventStatus, at time.Time) error {
	query := `
		UPDATE compliance_events
		SET status = $3,
		    updated_at = $4,
		    completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE completed_at END
		WHERE id = $1 AND status = $2`

	tag, err := s.pool.Exec(ctx, query, uuid.UUID(id), string(expected), string(next), at)
	if err != nil {
		return fmt.Errorf("cas status update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, id)
	}
	return nil
}

func (s *Store) CASUpdateReminderState(ctx context.Context, id domain.EventID, expectedCount, newCount int, sentAt time.Time, band domain.ReminderBand) error {
	query := `
		UPDATE compliance_events
		SET reminders_sent = $3,
		    last_reminder_sent_at = $4,
		    last_reminder_band = $5,
		    updated_at = $4
		WHERE id = $1 AND reminders_sent = $2 AND $3 >= reminders_sent
		  AND (last_reminder_sent_at IS NULL OR last_reminder_sent_at <= $4)`

	tag, err := s.pool.Exec(ctx, query, uuid.UUID(id), expectedCount, newCount, sentAt, string(band))
	if err != nil {
		return fmt.Errorf("cas reminder update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, id)
	}
	return nil
}

func (s *Store) staleOrMissing(ctx context.Context, id domain.EventID) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM compliance_events WHERE id = $1)`, uuid.UUID(id)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("cas verify: %w", err)
	}
	if !exists {
		return fmt.Errorf("event %s: %w", id, sentinel.ErrNotFound)
	}
	return fmt.Errorf("event %s moved concurrently: %w", id, sentinel.ErrStaleWrite)
}

func (s *Store) ListDueForSweep(ctx context.Context, now time.Time, horizon time.Duration, after store.Cursor, limit int) ([]*models.Event, store.Cursor, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events
		WHERE status <> 'completed'
		  AND due_date <= $1
		  AND ($2::timestamptz IS NULL OR (due_date, id) > ($2::timestamptz, $3::uuid))
		ORDER BY due_date, id
		LIMIT $4`

	var cursorDue *time.Time
	var cursorID *uuid.UUID
	if !after.IsZero() {
		cursorDue = &after.DueDate
		u := uuid.UUID(after.ID)
		cursorID = &u
	}

	rows, err := s.pool.Query(ctx, query, now.Add(horizon), cursorDue, cursorID, limit)
	if err != nil {
		return nil, store.Cursor{}, fmt.Errorf("list events for sweep: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		return nil, store.Cursor{}, err
	}

	next := store.Cursor{}
	if limit > 0 && len(events) == limit {
		last := events[len(events)-1]
		next = store.Cursor{DueDate: last.DueDate, ID: last.ID}
	}
	return events, next, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[domain.EventStatus]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM compliance_events GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count events by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.EventStatus(status)] = count
	}
	return counts, rows.Err()
}

func (s *Store) ListUpcoming(ctx context.Context, _ time.Time, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events
		WHERE status = 'upcoming'
		ORDER BY due_date ASC, entity_id ASC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) ListOverdue(ctx context.Context, _ time.Time, limit int) ([]*models.Event, error) {
	// Most-overdue first is oldest due date first.
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events
		WHERE status = 'overdue'
		ORDER BY due_date ASC, entity_id ASC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) ListByEntity(ctx context.Context, entityID domain.EntityID) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events
		WHERE entity_id = $1
		ORDER BY due_date DESC`

	rows, err := s.pool.Query(ctx, query, uuid.UUID(entityID))
	if err != nil {
		return nil, fmt.Errorf("list events by entity: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) ListCompletedWithoutSuccessor(ctx context.Context, completedAfter time.Time, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM compliance_events c
		WHERE c.status = 'completed'
		  AND c.completed_at > $1
		  AND NOT EXISTS (
			SELECT 1 FROM compliance_events o
			WHERE o.entity_id = c.entity_id
			  AND o.obligation_type = c.obligation_type
			  AND o.status <> 'completed'
		  )
		ORDER BY c.due_date, c.id
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, completedAfter, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed without successor: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*models.Event, error) {
	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event      models.Event
		id         uuid.UUID
		entityID   uuid.UUID
		period     string
		status     string
		priority   string
		band       string
		lastSentAt *time.Time
	)
	err := row.Scan(
		&id,
		&entityID,
		&event.ObligationType,
		&period,
		&event.DueDate,
		&status,
		&priority,
		&event.EstimatedCostCents,
		&event.FilingLink,
		&event.RemindersSent,
		&lastSentAt,
		&band,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	event.ID = domain.EventID(id)
	event.EntityID = domain.EntityID(entityID)
	event.Period = domain.Period(period)
	event.Status = domain.EventStatus(status)
	event.Priority = models.Priority(priority)
	event.LastReminderBand = domain.ReminderBand(band)
	event.LastReminderSentAt = lastSentAt
	return &event, nil
}
