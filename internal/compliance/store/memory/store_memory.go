// Package memory is the in-memory Store used by unit tests and local
// development. It mirrors the postgres adapter's conditional-write semantics
// exactly, including stale-write reporting.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"comply/internal/compliance/models"
	"comply/internal/compliance/store"
	"comply/pkg/domain"
	"comply/pkg/platform/sentinel"
)

type Store struct {
	mu     sync.RWMutex
	events map[domain.EventID]*models.Event
	// open maps an obligation key to its single non-completed event.
	open map[string]domain.EventID
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		events: make(map[domain.EventID]*models.Event),
		open:   make(map[string]domain.EventID),
	}
}

func (s *Store) InsertIfAbsent(_ context.Context, event *models.Event) (*models.Event, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.open[event.ObligationKey()]; ok {
		return clone(s.events[existingID]), false, nil
	}
	if _, ok := s.events[event.ID]; ok {
		return nil, false, fmt.Errorf("event %s: %w", event.ID, sentinel.ErrConflict)
	}

	stored := clone(event)
	s.events[stored.ID] = stored
	if !stored.Status.IsTerminal() {
		s.open[stored.ObligationKey()] = stored.ID
	}
	return clone(stored), true, nil
}

func (s *Store) FindOpen(_ context.Context, entityID domain.EntityID, obligationType string, period domain.Period) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := (&models.Event{EntityID: entityID, ObligationType: obligationType, Period: period}).ObligationKey()
	id, ok := s.open[key]
	if !ok {
		return nil, fmt.Errorf("open event for %s: %w", key, sentinel.ErrNotFound)
	}
	return clone(s.events[id]), nil
}

func (s *Store) GetEvent(_ context.Context, id domain.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, sentinel.ErrNotFound)
	}
	return clone(event), nil
}

func (s *Store) CASUpdateStatus(_ context.Context, id domain.EventID, expected, next domain.EventStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, sentinel.ErrNotFound)
	}
	if event.Status != expected {
		return fmt.Errorf("event %s status is %s, expected %s: %w", id, event.Status, expected, sentinel.ErrStaleWrite)
	}

	event.Status = next
	event.UpdatedAt = at
	if next == domain.StatusCompleted {
		completedAt := at
		event.CompletedAt = &completedAt
		delete(s.open, event.ObligationKey())
	}
	return nil
}

func (s *Store) CASUpdateReminderState(_ context.Context, id domain.EventID, expectedCount, newCount int, sentAt time.Time, band domain.ReminderBand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, sentinel.ErrNotFound)
	}
	if event.RemindersSent != expectedCount || newCount < event.RemindersSent {
		return fmt.Errorf("event %s reminder count moved: %w", id, sentinel.ErrStaleWrite)
	}

	event.RemindersSent = newCount
	sent := sentAt
	event.LastReminderSentAt = &sent
	event.LastReminderBand = band
	event.UpdatedAt = sentAt
	return nil
}

func (s *Store) ListDueForSweep(_ context.Context, now time.Time, horizon time.Duration, after store.Cursor, limit int) ([]*models.Event, store.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.Add(horizon)
	var due []*models.Event
	for _, event := range s.events {
		if event.Status.IsTerminal() || event.DueDate.After(cutoff) {
			continue
		}
		due = append(due, event)
	}
	sortSweepOrder(due)

	start := 0
	if !after.IsZero() {
		start = sort.Search(len(due), func(i int) bool {
			return sweepAfter(due[i], after)
		})
	}
	due = due[start:]

	next := store.Cursor{}
	if limit > 0 && len(due) > limit {
		due = due[:limit]
		last := due[len(due)-1]
		next = store.Cursor{DueDate: last.DueDate, ID: last.ID}
	}

	out := make([]*models.Event, len(due))
	for i, event := range due {
		out[i] = clone(event)
	}
	return out, next, nil
}

func (s *Store) CountByStatus(_ context.Context) (map[domain.EventStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.EventStatus]int)
	for _, event := range s.events {
		counts[event.Status]++
	}
	return counts, nil
}

func (s *Store) ListUpcoming(_ context.Context, _ time.Time, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.events {
		if event.Status == domain.StatusUpcoming {
			out = append(out, clone(event))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return lessID(uuid.UUID(out[i].EntityID), uuid.UUID(out[j].EntityID))
	})
	return truncate(out, limit), nil
}

func (s *Store) ListOverdue(_ context.Context, _ time.Time, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.events {
		if event.Status == domain.StatusOverdue {
			out = append(out, clone(event))
		}
	}
	// Most-overdue first is oldest due date first.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return lessID(uuid.UUID(out[i].EntityID), uuid.UUID(out[j].EntityID))
	})
	return truncate(out, limit), nil
}

func (s *Store) ListByEntity(_ context.Context, entityID domain.EntityID) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.events {
		if event.EntityID == entityID {
			out = append(out, clone(event))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DueDate.After(out[j].DueDate)
	})
	return out, nil
}

func (s *Store) ListCompletedWithoutSuccessor(_ context.Context, completedAfter time.Time, limit int) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	openSlots := make(map[string]bool)
	for _, event := range s.events {
		if !event.Status.IsTerminal() {
			openSlots[event.EntityID.String()+"/"+event.ObligationType] = true
		}
	}

	var out []*models.Event
	for _, event := range s.events {
		if event.Status != domain.StatusCompleted || event.CompletedAt == nil {
			continue
		}
		if !event.CompletedAt.After(completedAfter) {
			continue
		}
		if openSlots[event.EntityID.String()+"/"+event.ObligationType] {
			continue
		}
		out = append(out, clone(event))
	}
	sortSweepOrder(out)
	return truncate(out, limit), nil
}

func sortSweepOrder(events []*models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].DueDate.Equal(events[j].DueDate) {
			return events[i].DueDate.Before(events[j].DueDate)
		}
		return lessID(uuid.UUID(events[i].ID), uuid.UUID(events[j].ID))
	})
}

func sweepAfter(event *models.Event, c store.Cursor) bool {
	if !event.DueDate.Equal(c.DueDate) {
		return event.DueDate.After(c.DueDate)
	}
	a, b := uuid.UUID(event.ID), uuid.UUID(c.ID)
	return bytes.Compare(a[:], b[:]) > 0
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func truncate(events []*models.Event, limit int) []*models.Event {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}

func clone(event *models.Event) *models.Event {
	if event == nil {
		return nil
	}
	out := *event
	if event.LastReminderSentAt != nil {
		t := *event.LastReminderSentAt
		out.LastReminderSentAt = &t
	}
	if event.CompletedAt != nil {
		t := *event.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
