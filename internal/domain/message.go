package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxTextLen       = 4096
	MaxReplyQuoteLen = 280

	// LobbyChatID scopes undirected messages.
	LobbyChatID = "lobby"

	chatIDSeparator = "_"
)

var (
	ErrTextEmpty   = errors.New("text empty")
	ErrTextTooLong = errors.New("text too long")
)

// ReplyRef is a by-value snapshot of the message being replied to.
// The original may be retracted later; the snapshot stays as sent.
type ReplyRef struct {
	ID     string   `json:"id"`
	Sender Identity `json:"sender"`
	Text   string   `json:"text"`
}

// ChatMessage is relayed once and never stored.
type ChatMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Sender    Identity  `json:"sender"`
	Recipient Identity  `json:"recipient,omitempty"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
	ReplyTo   *ReplyRef `json:"replyTo,omitempty"`
}

// NewChatMessage stamps id, timestamp and chat scope. An empty recipient
// makes it a lobby broadcast.
func NewChatMessage(sender, recipient Identity, text string, reply *ReplyRef) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextEmpty
	}
	if len(text) > MaxTextLen {
		return nil, ErrTextTooLong
	}
	msg := &ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    LobbyChatID,
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	if recipient != "" {
		msg.ChatID = ChatID(sender, recipient)
	}
	if reply != nil && reply.ID != "" {
		quote := *reply
		quote.Text = truncate(quote.Text, MaxReplyQuoteLen)
		msg.ReplyTo = &quote
	}
	return msg, nil
}

// IsDirect reports whether the message targets a single identity.
func (m *ChatMessage) IsDirect() bool { return m.Recipient != "" }

// ChatID is the order-independent conversation key for two identities.
func ChatID(a, b Identity) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + chatIDSeparator + string(b)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
