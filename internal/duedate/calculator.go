// Package duedate computes concrete filing due dates from catalog policy.
// Everything here is pure: inputs in, date out, no clock reads and no stores.
package duedate

import (
	"fmt"
	"time"

	"comply/internal/catalog"
	"comply/pkg/domain"
)

// ForPeriod computes the due date of a requirement for the given filing
// period.
//
// Fixed-date policies anchor the catalog month-day in the period's year. If
// that date is not after now, the due date rolls forward one year: generation
// must never hand out an already-overdue due date for a fresh obligation.
//
// Formation-based policies take the formation anniversary within the period's
// year and add the configured offset in calendar days. A Feb-29 formation
// clamps to Feb 28 in non-leap years.
//
// Errors: wraps catalog.ErrConfiguration when the declared due date type is
// missing the field it requires. There is no silent default.
func ForPeriod(req *catalog.Requirement, formationDate time.Time, period domain.Period, now time.Time) (time.Time, error) {
	year := period.Year()
	if year == 0 {
		return time.Time{}, fmt.Errorf("%w: period %q has no year", catalog.ErrConfiguration, period)
	}

	switch req.DueDateType {
	case catalog.DueDateFixed:
		if req.FixedDueDate == nil {
			return time.Time{}, fmt.Errorf("%w: fixed_due_date missing for (%s, %s)",
				catalog.ErrConfiguration, req.State, req.EntityType)
		}
		due := req.FixedDueDate.In(year)
		if !due.After(now) {
			due = req.FixedDueDate.In(year + 1)
		}
		return due, nil

	case catalog.DueDateFormationBased:
		if req.DueDateOffsetDays == nil {
			return time.Time{}, fmt.Errorf("%w: due_date_offset_days missing for (%s, %s)",
				catalog.ErrConfiguration, req.State, req.EntityType)
		}
		anniversary := anniversaryIn(year, formationDate)
		return anniversary.AddDate(0, 0, *req.DueDateOffsetDays), nil

	default:
		return time.Time{}, fmt.Errorf("%w: unknown due_date_type %q", catalog.ErrConfiguration, req.DueDateType)
	}
}

// anniversaryIn places the formation month-day in the given year, clamping a
// Feb-29 formation to Feb 28 when the year is not a leap year.
func anniversaryIn(year int, formation time.Time) time.Time {
	month, day := formation.Month(), formation.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
