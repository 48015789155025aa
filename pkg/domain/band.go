package domain

import (
	"time"
)

// ReminderBand is a named proximity range between now and an event's due date.
// Bands escalate as the due date approaches; reminders fire on band entry.
type ReminderBand string

const (
	BandNone     ReminderBand = ""
	BandFar      ReminderBand = "far"      // due within 90 days
	BandSoon     ReminderBand = "soon"     // due within 30 days
	BandUrgent   ReminderBand = "urgent"   // due within 7 days
	BandImminent ReminderBand = "imminent" // due within 1 day
	BandOverdue  ReminderBand = "overdue"  // due date has passed
)

// DaysUntil returns the number of whole days from now until due, rounding any
// partial day up. A due date earlier than now yields a negative count.
func DaysUntil(due, now time.Time) int {
	d := due.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// BandFor maps the distance to a due date onto its reminder band. Thresholds
// apply to the raw duration: an event 30 days and a few hours out is still
// Soon even though DaysUntil reports 31. Events more than 91 days out are
// outside every band and get no reminders.
func BandFor(due, now time.Time) ReminderBand {
	const day = 24 * time.Hour
	d := due.Sub(now)
	switch {
	case d < 0:
		return BandOverdue
	case d < 2*day:
		return BandImminent
	case d < 8*day:
		return BandUrgent
	case d < 31*day:
		return BandSoon
	case d < 91*day:
		return BandFar
	default:
		return BandNone
	}
}

// Rank orders bands by urgency; higher means closer to (or past) the due date.
// BandNone ranks lowest.
func (b ReminderBand) Rank() int {
	switch b {
	case BandFar:
		return 1
	case BandSoon:
		return 2
	case BandUrgent:
		return 3
	case BandImminent:
		return 4
	case BandOverdue:
		return 5
	default:
		return 0
	}
}

// Final reports whether the band is in the daily re-nag window, where a
// reminder repeats every 24h even without a band change.
func (b ReminderBand) Final() bool {
	return b == BandImminent || b == BandOverdue
}

func (b ReminderBand) String() string { return string(b) }
