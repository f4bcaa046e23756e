package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity("  alice ")
	require.NoError(t, err)
	assert.Equal(t, Identity("alice"), id)

	_, err = NewIdentity("   ")
	assert.ErrorIs(t, err, ErrIdentityEmpty)

	_, err = NewIdentity(strings.Repeat("x", MaxIdentityLen+1))
	assert.ErrorIs(t, err, ErrIdentityTooLong)

	_, err = NewIdentity("a_b")
	assert.ErrorIs(t, err, ErrIdentityInvalid)
}

func TestNewRoomName(t *testing.T) {
	name, err := NewRoomName(" standup ")
	require.NoError(t, err)
	assert.Equal(t, RoomName("standup"), name)

	_, err = NewRoomName("")
	assert.ErrorIs(t, err, ErrRoomNameEmpty)

	_, err = NewRoomName(strings.Repeat("r", MaxRoomNameLen+1))
	assert.ErrorIs(t, err, ErrRoomNameTooLong)
}
