package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderedID(t *testing.T) {
	t.Parallel()

	prev := GenerateOrderedID()
	for i := 0; i < 100; i++ {
		next := GenerateOrderedID()
		parsed, err := uuid.Parse(next)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(7), parsed.Version())
		require.Less(t, prev, next)
		prev = next
	}

	_, err := uuid.Parse(GenerateID())
	require.NoError(t, err)
}
