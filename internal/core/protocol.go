package core

import (
	"encoding/json"

	"github.com/dkeye/Relay/internal/domain"
)

// Server to client event names.
const (
	TypeSession        = "session"
	TypeWhoAmI         = "whoami"
	TypePong           = "pong"
	TypeError          = "error"
	TypeUpdateUserList = "updateUserList"
	TypeReceiveMessage = "receiveMessage"
	TypeMessageSent    = "messageSent"
	TypeMessageDeleted = "messageDeleted"
	TypeHey            = "hey"
	TypeCallAccepted   = "callAccepted"
	TypeUserJoined     = "userJoined"
	TypeUserLeft       = "userLeft"
	TypeRoomState      = "roomState"
)

// Error codes sent in ErrorMsg.
const (
	ErrCodeBadPayload       = "bad_payload"
	ErrCodeUnknownEvent     = "unknown_event"
	ErrCodeIdentityRequired = "identity_required"
	ErrCodeInvalidIdentity  = "invalid_identity"
	ErrCodeInvalidRoom      = "invalid_room"
	ErrCodeInvalidText      = "invalid_text"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeNotInRoom        = "not_in_room"
)

type SessionMsg struct {
	Type      string    `json:"type"`
	SessionID SessionID `json:"sessionId"`
}

type WhoAmIMsg struct {
	Type      string            `json:"type"`
	SessionID SessionID         `json:"sessionId"`
	Identity  domain.Identity   `json:"identity,omitempty"`
	Rooms     []domain.RoomName `json:"rooms"`
}

type ErrorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewErrorMsg(code string) ErrorMsg { return ErrorMsg{Type: TypeError, Error: code} }

type UserListMsg struct {
	Type  string            `json:"type"`
	Users []domain.Identity `json:"users"`
}

type ChatMsg struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message"`
}

type MessageDeletedMsg struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
}

type HeyMsg struct {
	Type          string          `json:"type"`
	Signal        json.RawMessage `json:"signal"`
	FromSessionID SessionID       `json:"fromSessionId"`
	FromIdentity  domain.Identity `json:"fromIdentity"`
	RoomName      domain.RoomName `json:"roomName"`
}

type CallAcceptedMsg struct {
	Type          string          `json:"type"`
	Signal        json.RawMessage `json:"signal"`
	FromSessionID SessionID       `json:"fromSessionId"`
}

type UserJoinedMsg struct {
	Type      string          `json:"type"`
	SessionID SessionID       `json:"sessionId"`
	Identity  domain.Identity `json:"identity,omitempty"`
	Room      domain.RoomName `json:"room"`
}

type UserLeftMsg struct {
	Type      string          `json:"type"`
	SessionID SessionID       `json:"sessionId"`
	Room      domain.RoomName `json:"room"`
}

type RoomStateMsg struct {
	Type    string          `json:"type"`
	Room    domain.RoomName `json:"room"`
	Members []MemberDTO     `json:"members"`
}

// PeerSignalMsg forwards an offer, answer or candidate with its origin.
type PeerSignalMsg struct {
	Type    string          `json:"type"`
	Room    domain.RoomName `json:"room"`
	From    SessionID       `json:"from"`
	Payload json.RawMessage `json:"payload"`
}
