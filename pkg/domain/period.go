package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	derrors "comply/pkg/domain-errors"
)

// Period names the filing cycle an event instance covers.
//
// Formats by cadence:
//   - yearly cadences (one_time, annual, biennial): "2024"
//   - quarterly: "2024-Q3"
//   - monthly: "2024-09"
//
// The year component drives due-date computation; the sub-year component only
// distinguishes instances within a year for idempotency keys.
type Period string

var periodPattern = regexp.MustCompile(`^(\d{4})(?:-(Q[1-4]|0[1-9]|1[0-2]))?$`)

// ParsePeriod constructs a Period from external input.
func ParsePeriod(s string) (Period, error) {
	if !periodPattern.MatchString(s) {
		return "", derrors.Newf(derrors.CodeInvalidInput, "invalid period %q", s)
	}
	return Period(s), nil
}

// PeriodFor returns the period containing t for the given cadence.
func PeriodFor(f Frequency, t time.Time) Period {
	switch f {
	case FrequencyQuarterly:
		q := (int(t.Month())-1)/3 + 1
		return Period(fmt.Sprintf("%04d-Q%d", t.Year(), q))
	case FrequencyMonthly:
		return Period(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
	default:
		return Period(fmt.Sprintf("%04d", t.Year()))
	}
}

// Year returns the period's calendar year.
func (p Period) Year() int {
	m := periodPattern.FindStringSubmatch(string(p))
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

// IsValid checks the period matches one of the supported formats.
func (p Period) IsValid() bool { return periodPattern.MatchString(string(p)) }

// Next advances the period by one cycle of the given cadence.
func (p Period) Next(f Frequency) Period {
	m := periodPattern.FindStringSubmatch(string(p))
	if m == nil {
		return p
	}
	year, _ := strconv.Atoi(m[1])

	switch f {
	case FrequencyBiennial:
		return Period(fmt.Sprintf("%04d", year+2))
	case FrequencyQuarterly:
		q := 1
		if len(m[2]) == 2 && m[2][0] == 'Q' {
			q, _ = strconv.Atoi(m[2][1:])
		}
		q++
		if q > 4 {
			q = 1
			year++
		}
		return Period(fmt.Sprintf("%04d-Q%d", year, q))
	case FrequencyMonthly:
		month := 1
		if len(m[2]) == 2 && m[2][0] != 'Q' {
			month, _ = strconv.Atoi(m[2])
		}
		month++
		if month > 12 {
			month = 1
			year++
		}
		return Period(fmt.Sprintf("%04d-%02d", year, month))
	default:
		return Period(fmt.Sprintf("%04d", year+1))
	}
}

func (p Period) String() string { return string(p) }
