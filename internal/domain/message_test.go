package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatID_OrderIndependent(t *testing.T) {
	assert.Equal(t, ChatID("alice", "bob"), ChatID("bob", "alice"))
	assert.Equal(t, "alice_bob", ChatID("bob", "alice"))
	assert.Equal(t, "alice_alice", ChatID("alice", "alice"))
}

func TestNewChatMessage_Direct(t *testing.T) {
	msg, err := NewChatMessage("bob", "alice", " hi ", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "alice_bob", msg.ChatID)
	assert.True(t, msg.IsDirect())
	assert.NotZero(t, msg.Timestamp)
	assert.Nil(t, msg.ReplyTo)
}

func TestNewChatMessage_Broadcast(t *testing.T) {
	msg, err := NewChatMessage("bob", "", "hello all", nil)
	require.NoError(t, err)
	assert.False(t, msg.IsDirect())
	assert.Equal(t, LobbyChatID, msg.ChatID)
}

func TestNewChatMessage_UniqueIDs(t *testing.T) {
	a, err := NewChatMessage("bob", "", "one", nil)
	require.NoError(t, err)
	b, err := NewChatMessage("bob", "", "one", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewChatMessage_ReplyIsSnapshot(t *testing.T) {
	ref := &ReplyRef{ID: "m1", Sender: "alice", Text: strings.Repeat("q", MaxReplyQuoteLen+10)}
	msg, err := NewChatMessage("bob", "alice", "answer", ref)
	require.NoError(t, err)
	require.NotNil(t, msg.ReplyTo)

	assert.Len(t, msg.ReplyTo.Text, MaxReplyQuoteLen)
	ref.Text = "mutated"
	assert.NotEqual(t, "mutated", msg.ReplyTo.Text)
}

func TestNewChatMessage_ReplyQuoteKeepsRunes(t *testing.T) {
	text := strings.Repeat("a", MaxReplyQuoteLen-1) + "éé"
	msg, err := NewChatMessage("bob", "alice", "answer", &ReplyRef{ID: "m1", Text: text})
	require.NoError(t, err)

	quote := msg.ReplyTo.Text
	assert.True(t, utf8.ValidString(quote))
	assert.Equal(t, strings.Repeat("a", MaxReplyQuoteLen-1), quote)

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "\ufffd")
}

func TestNewChatMessage_ReplyWithoutIDDropped(t *testing.T) {
	msg, err := NewChatMessage("bob", "", "x", &ReplyRef{Text: "orphan"})
	require.NoError(t, err)
	assert.Nil(t, msg.ReplyTo)
}

func TestNewChatMessage_InvalidText(t *testing.T) {
	_, err := NewChatMessage("bob", "", "   ", nil)
	assert.ErrorIs(t, err, ErrTextEmpty)

	_, err = NewChatMessage("bob", "", strings.Repeat("t", MaxTextLen+1), nil)
	assert.ErrorIs(t, err, ErrTextTooLong)
}
