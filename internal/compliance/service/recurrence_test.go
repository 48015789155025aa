package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"comply/internal/compliance/store/memory"
	"comply/internal/directory"
	"comply/pkg/domain"
	derrors "comply/pkg/domain-errors"
)

type RecurrenceSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	store      *memory.Store
	directory  *directory.InMemory
	generator  *Generator
	recurrence *Recurrence
}

func TestRecurrenceSuite(t *testing.T) {
	suite.Run(t, new(RecurrenceSuite))
}

func (s *RecurrenceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.store = memory.New()
	s.directory = directory.NewInMemory()
	cat := loadTestCatalog(s.T())

	var err error
	s.generator, err = NewGenerator(cat, s.directory, s.store, testLogger(), testMetrics())
	s.Require().NoError(err)
	s.recurrence, err = NewRecurrence(cat, s.directory, s.store, testLogger(), testMetrics())
	s.Require().NoError(err)
}

func (s *RecurrenceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *RecurrenceSuite) addEntity(state, entityType string, formed time.Time) domain.EntityID {
	id := domain.EntityID(uuid.New())
	s.directory.Put(&directory.BusinessEntity{
		ID:            id,
		State:         state,
		EntityType:    entityType,
		FormationDate: formed,
	})
	return id
}

func (s *RecurrenceSuite) TestComplete() {
	s.Run("completes and schedules the next annual cycle", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)

		completed, next, err := s.recurrence.Complete(s.ctx, event.ID, s.now)
		s.Require().NoError(err)
		s.Equal(domain.StatusCompleted, completed.Status)
		s.Require().NotNil(completed.CompletedAt)

		s.Require().NotNil(next)
		s.Equal(domain.Period("2025"), next.Period)
		s.Equal(domain.StatusUpcoming, next.Status)
		s.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), next.DueDate)
		s.True(next.DueDate.After(completed.DueDate))
		s.Equal(0, next.RemindersSent)
	})

	s.Run("biennial successor skips a year", func() {
		entityID := s.addEntity("CA", "llc", time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC))
		at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		event, err := s.generator.Create(s.ctx, entityID, "", "2023", at)
		s.Require().NoError(err)

		_, next, err := s.recurrence.Complete(s.ctx, event.ID, at.AddDate(0, 8, 0))
		s.Require().NoError(err)
		s.Require().NotNil(next)
		s.Equal(domain.Period("2025"), next.Period)
		// 2025-07-01 anniversary + 90 days
		s.Equal(time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC), next.DueDate)
	})

	s.Run("completing twice is a no-op success", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)

		_, first, err := s.recurrence.Complete(s.ctx, event.ID, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(first)

		completed, second, err := s.recurrence.Complete(s.ctx, event.ID, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(domain.StatusCompleted, completed.Status)
		// The successor slot is already occupied; no duplicate appears.
		if second != nil {
			s.Equal(first.ID, second.ID)
		}

		counts, err := s.store.CountByStatus(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, counts[domain.StatusUpcoming])
		s.Equal(1, counts[domain.StatusCompleted])
	})

	s.Run("completing an overdue event works", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CASUpdateStatus(s.ctx, event.ID, domain.StatusUpcoming, domain.StatusOverdue, s.now))

		completed, _, err := s.recurrence.Complete(s.ctx, event.ID, s.now.AddDate(0, 2, 0))
		s.Require().NoError(err)
		s.Equal(domain.StatusCompleted, completed.Status)
	})

	s.Run("unknown event returns not found", func() {
		_, _, err := s.recurrence.Complete(s.ctx, domain.NewEventID(), s.now)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("concurrent sweeper flip does not block completion", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)

		// Stale view: caller read the event as upcoming, the sweeper flips
		// it before the completion CAS lands.
		s.Require().NoError(s.store.CASUpdateStatus(s.ctx, event.ID, domain.StatusUpcoming, domain.StatusOverdue, s.now))

		stale := *event
		stale.Status = domain.StatusUpcoming
		s.Require().NoError(s.recurrence.markCompleted(s.ctx, &stale, s.now))

		stored, err := s.store.GetEvent(s.ctx, event.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusCompleted, stored.Status)
	})
}

func (s *RecurrenceSuite) TestRegenerate() {
	s.Run("requirement retired means nothing recurs", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)

		// Entity moved to a jurisdiction with no active requirement.
		s.directory.Put(&directory.BusinessEntity{
			ID:            entityID,
			State:         "WY",
			EntityType:    "llc",
			FormationDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		})

		completed, next, err := s.recurrence.Complete(s.ctx, event.ID, s.now)
		s.Require().NoError(err)
		s.Equal(domain.StatusCompleted, completed.Status)
		s.Nil(next)
	})

	s.Run("regeneration runs at most once across workers", func() {
		entityID := s.addEntity("DE", "llc", time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC))
		event, err := s.generator.Create(s.ctx, entityID, "", "2024", s.now)
		s.Require().NoError(err)

		completed, first, err := s.recurrence.Complete(s.ctx, event.ID, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(first)

		// A second worker retries regeneration against the completed row.
		second, err := s.recurrence.Regenerate(s.ctx, completed, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(second)
		s.Equal(first.ID, second.ID)

		counts, err := s.store.CountByStatus(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, counts[domain.StatusUpcoming])
	})
}
