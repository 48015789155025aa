package domain

import derrors "comply/pkg/domain-errors"

// Frequency is the filing cadence a jurisdiction imposes on an obligation.
type Frequency string

const (
	FrequencyOneTime   Frequency = "one_time"
	FrequencyAnnual    Frequency = "annual"
	FrequencyBiennial  Frequency = "biennial"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyMonthly   Frequency = "monthly"
)

var validFrequencies = map[Frequency]bool{
	FrequencyOneTime:   true,
	FrequencyAnnual:    true,
	FrequencyBiennial:  true,
	FrequencyQuarterly: true,
	FrequencyMonthly:   true,
}

// ParseFrequency constructs a Frequency from external input.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", derrors.Newf(derrors.CodeInvalidInput, "invalid frequency %q", s)
	}
	return f, nil
}

// IsValid checks the frequency is one of the supported enum values.
func (f Frequency) IsValid() bool { return validFrequencies[f] }

// Recurring reports whether completing an obligation schedules a next cycle.
func (f Frequency) Recurring() bool { return f != FrequencyOneTime }

func (f Frequency) String() string { return string(f) }
