package catalog

import (
	"fmt"
	"time"

	"comply/pkg/domain"
	derrors "comply/pkg/domain-errors"
)

// DueDateType selects how a requirement's due date is derived.
type DueDateType string

const (
	// DueDateFixed pins the due date to a fixed month-day each cycle.
	DueDateFixed DueDateType = "fixed_date"
	// DueDateFormationBased offsets the due date from the entity's
	// formation anniversary.
	DueDateFormationBased DueDateType = "formation_based"
)

// IsValid checks the due date type is one of the supported enum values.
func (t DueDateType) IsValid() bool {
	return t == DueDateFixed || t == DueDateFormationBased
}

// MonthDay is a recurring calendar date without a year, e.g. "06-01".
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses the "MM-DD" wire format used in catalog files.
func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%2d-%2d", &m, &d); err != nil || len(s) != 5 {
		return MonthDay{}, derrors.Newf(derrors.CodeInvalidInput, "invalid month-day %q, want MM-DD", s)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return MonthDay{}, derrors.Newf(derrors.CodeInvalidInput, "month-day %q out of range", s)
	}
	md := MonthDay{Month: time.Month(m), Day: d}
	// Anchor in a leap year so 02-29 passes but 02-30 and 04-31 do not.
	if t := md.In(2000); t.Month() != md.Month || t.Day() != md.Day {
		return MonthDay{}, derrors.Newf(derrors.CodeInvalidInput, "month-day %q is not a calendar date", s)
	}
	return md, nil
}

// In anchors the month-day in a concrete year, in UTC.
func (md MonthDay) In(year int) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// Requirement is a filing policy for one jurisdiction and entity type.
// At most one active requirement exists per (state, entityType); the catalog
// enforces that at load time.
type Requirement struct {
	State          string
	EntityType     string
	ObligationType string

	DueDateType       DueDateType
	FixedDueDate      *MonthDay
	DueDateOffsetDays *int

	GracePeriodDays       int
	FilingFeeCents        int64
	LateFeeCents          int64
	DissolutionThreatDays int

	Frequency  domain.Frequency
	FilingLink string
	IsActive   bool
}

// Key returns the normalized (state, entityType) lookup key.
func (r *Requirement) Key() string {
	return catalogKey(r.State, r.EntityType)
}
