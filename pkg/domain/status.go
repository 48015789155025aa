package domain

import derrors "comply/pkg/domain-errors"

// EventStatus is the lifecycle state of a compliance event.
//
// Transitions are one-way: Upcoming -> Overdue, and Completed is terminal and
// reachable from any non-terminal state. Nothing moves out of Completed.
//
// StatusExempt exists in upstream data but no generation path produces it; it
// is carried for forward compatibility only.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOverdue   EventStatus = "overdue"
	StatusCompleted EventStatus = "completed"
	StatusExempt    EventStatus = "exempt"
)

var validStatuses = map[EventStatus]bool{
	StatusUpcoming:  true,
	StatusOverdue:   true,
	StatusCompleted: true,
	StatusExempt:    true,
}

// ParseEventStatus constructs an EventStatus from external input.
func ParseEventStatus(s string) (EventStatus, error) {
	st := EventStatus(s)
	if !st.IsValid() {
		return "", derrors.Newf(derrors.CodeInvalidInput, "invalid event status %q", s)
	}
	return st, nil
}

// IsValid checks the status is one of the supported enum values.
func (s EventStatus) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether no further transitions may leave this status.
func (s EventStatus) IsTerminal() bool { return s == StatusCompleted }

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case StatusCompleted:
		return true
	case StatusOverdue:
		return s == StatusUpcoming
	default:
		return false
	}
}

func (s EventStatus) String() string { return string(s) }
