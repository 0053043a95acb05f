package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDisplayName(t *testing.T) {
	require.NoError(t, ValidateDisplayName("Alice"))
	require.ErrorIs(t, ValidateDisplayName(""), ErrDisplayNameEmpty)
	require.ErrorIs(t, ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLen+1)), ErrDisplayNameTooLong)
}

func TestValidateRoomName(t *testing.T) {
	require.NoError(t, ValidateRoomName("standup"))
	require.ErrorIs(t, ValidateRoomName(""), ErrRoomNameEmpty)
	require.ErrorIs(t, ValidateRoomName(strings.Repeat("x", MaxRoomNameLen+1)), ErrRoomNameTooLong)
}
