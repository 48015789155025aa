package duedate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comply/internal/catalog"
	"comply/pkg/domain"
)

func fixedReq(md catalog.MonthDay) *catalog.Requirement {
	return &catalog.Requirement{
		State:          "DE",
		EntityType:     "llc",
		ObligationType: "annual_franchise_tax",
		DueDateType:    catalog.DueDateFixed,
		FixedDueDate:   &md,
		Frequency:      domain.FrequencyAnnual,
		IsActive:       true,
	}
}

func formationReq(offsetDays int) *catalog.Requirement {
	return &catalog.Requirement{
		State:             "CA",
		EntityType:        "llc",
		ObligationType:    "statement_of_information",
		DueDateType:       catalog.DueDateFormationBased,
		DueDateOffsetDays: &offsetDays,
		Frequency:         domain.FrequencyBiennial,
		IsActive:          true,
	}
}

func TestForPeriodFixedDate(t *testing.T) {
	june1 := catalog.MonthDay{Month: time.June, Day: 1}

	t.Run("due date still ahead stays in period year", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(fixedReq(june1), time.Time{}, "2024", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("date already passed rolls forward one year", func(t *testing.T) {
		now := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(fixedReq(june1), time.Time{}, "2024", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("due exactly now rolls forward", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(fixedReq(june1), time.Time{}, "2024", now)
		require.NoError(t, err)
		assert.Equal(t, 2025, due.Year())
	})

	t.Run("missing fixed date is a configuration error", func(t *testing.T) {
		req := fixedReq(june1)
		req.FixedDueDate = nil
		_, err := ForPeriod(req, time.Time{}, "2024", time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrConfiguration)
	})
}

func TestForPeriodFormationBased(t *testing.T) {
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("anniversary plus offset", func(t *testing.T) {
		formed := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(formationReq(90), formed, "2023", now)
		require.NoError(t, err)
		// 2023-03-15 + 90 days
		assert.Equal(t, time.Date(2023, 6, 13, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("zero offset lands on anniversary", func(t *testing.T) {
		formed := time.Date(2019, 11, 2, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(formationReq(0), formed, "2023", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("leap day formation clamps in non-leap years", func(t *testing.T) {
		formed := time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)

		due, err := ForPeriod(formationReq(0), formed, "2023", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), due)

		due, err = ForPeriod(formationReq(0), formed, "2024", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("offset may cross a year boundary", func(t *testing.T) {
		formed := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
		due, err := ForPeriod(formationReq(60), formed, "2023", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), due)
	})

	t.Run("missing offset is a configuration error", func(t *testing.T) {
		req := formationReq(0)
		req.DueDateOffsetDays = nil
		_, err := ForPeriod(req, time.Now(), "2023", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, catalog.ErrConfiguration)
	})
}

func TestForPeriodRejectsBadInput(t *testing.T) {
	t.Run("period without a year", func(t *testing.T) {
		_, err := ForPeriod(fixedReq(catalog.MonthDay{Month: time.June, Day: 1}), time.Time{}, "garbage", time.Now())
		assert.ErrorIs(t, err, catalog.ErrConfiguration)
	})

	t.Run("unknown due date type", func(t *testing.T) {
		req := fixedReq(catalog.MonthDay{Month: time.June, Day: 1})
		req.DueDateType = "lunar"
		_, err := ForPeriod(req, time.Time{}, "2024", time.Now())
		assert.ErrorIs(t, err, catalog.ErrConfiguration)
	})
}
