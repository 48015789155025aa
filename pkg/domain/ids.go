// Package domain defines value objects shared across the compliance engine:
// typed identifiers, lifecycle enums, and the filing period.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment. Construct via the Parse functions at trust boundaries; direct
// casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	derrors "comply/pkg/domain-errors"
)

// EntityID identifies a registered business entity in the external directory.
type EntityID uuid.UUID

// EventID identifies a compliance event.
type EventID uuid.UUID

func (id EntityID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string  { return uuid.UUID(id).String() }

func (id EntityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewEventID generates a fresh event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// Defined types do not inherit uuid.UUID's text marshaling, so IDs declare it
// themselves; without these they would serialize as raw byte arrays.

func (id EntityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *EntityID) UnmarshalText(b []byte) error {
	parsed, err := ParseEntityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseEntityID constructs an EntityID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or nil.
func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID(u), nil
}

// ParseEventID constructs an EventID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or nil.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.New(derrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
