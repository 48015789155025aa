package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "comply/pkg/domain-errors"
)

func TestParseEntityID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEntityID("")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseEntityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseEntityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseEntityID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, EntityID(raw), id)
		assert.False(t, id.IsNil())
	})
}

func TestParseEventID(t *testing.T) {
	t.Run("round trips through String", func(t *testing.T) {
		id := NewEventID()
		parsed, err := ParseEventID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseEventID("12345")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeInvalidInput))
	})
}

// Typed IDs are distinct types over uuid.UUID; assigning one to the other
// fails to compile. This documents the invariant at runtime.
func TestTypeDistinction(t *testing.T) {
	entityID := EntityID(uuid.New())
	eventID := EventID(uuid.New())
	assert.NotEqual(t, uuid.UUID(entityID), uuid.UUID(eventID))
}
