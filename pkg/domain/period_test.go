package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "comply/pkg/domain-errors"
)

func TestParsePeriod(t *testing.T) {
	t.Run("accepts supported formats", func(t *testing.T) {
		for _, in := range []string{"2024", "2024-Q1", "2024-Q4", "2024-01", "2024-12"} {
			p, err := ParsePeriod(in)
			require.NoError(t, err, in)
			assert.True(t, p.IsValid())
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{"", "24", "2024-Q5", "2024-13", "2024-00", "2024-q1", "2024-1", "annual"} {
			_, err := ParsePeriod(in)
			require.Error(t, err, in)
			assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput), in)
		}
	})
}

func TestPeriodFor(t *testing.T) {
	at := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Period("2024"), PeriodFor(FrequencyAnnual, at))
	assert.Equal(t, Period("2024"), PeriodFor(FrequencyBiennial, at))
	assert.Equal(t, Period("2024"), PeriodFor(FrequencyOneTime, at))
	assert.Equal(t, Period("2024-Q3"), PeriodFor(FrequencyQuarterly, at))
	assert.Equal(t, Period("2024-08"), PeriodFor(FrequencyMonthly, at))
}

func TestPeriodYear(t *testing.T) {
	assert.Equal(t, 2024, Period("2024").Year())
	assert.Equal(t, 2025, Period("2025-Q2").Year())
	assert.Equal(t, 2023, Period("2023-11").Year())
	assert.Equal(t, 0, Period("garbage").Year())
}

func TestPeriodNext(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		f    Frequency
		want Period
	}{
		{"annual advances one year", "2024", FrequencyAnnual, "2025"},
		{"biennial advances two years", "2024", FrequencyBiennial, "2026"},
		{"quarter within year", "2024-Q2", FrequencyQuarterly, "2024-Q3"},
		{"quarter rolls into next year", "2024-Q4", FrequencyQuarterly, "2025-Q1"},
		{"month within year", "2024-08", FrequencyMonthly, "2024-09"},
		{"december rolls into next year", "2024-12", FrequencyMonthly, "2025-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Next(tt.f))
		})
	}
}
