package core

import (
	"encoding/json"

	"github.com/dkeye/Relay/internal/domain"
)

// Event is one inbound step for the orchestrator loop.
type Event interface {
	Origin() SessionID
}

// Source carries the session an event arrived on.
type Source struct {
	SID SessionID
}

func (s Source) Origin() SessionID { return s.SID }

type Connected struct {
	Source
	ClientToken string
	Conn        SignalConnection
}

type Disconnected struct {
	Source
}

type IdentityAnnounced struct {
	Source
	Identity domain.Identity
}

type MessageSubmitted struct {
	Source
	Recipient domain.Identity
	Text      string
	ReplyTo   *domain.ReplyRef
}

type MessageRetracted struct {
	Source
	MessageID string
	ChatID    string
}

type CallRequested struct {
	Source
	To     domain.Identity
	Room   domain.RoomName
	Signal json.RawMessage
}

type CallAnswered struct {
	Source
	To     SessionID
	Signal json.RawMessage
}

type RoomJoinRequested struct {
	Source
	Room domain.RoomName
}

type RoomLeaveRequested struct {
	Source
	Room domain.RoomName
}

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "ice-candidate"
)

// PeerSignal is an offer, answer or ICE candidate inside a room.
// An empty Target fans out to every other member.
type PeerSignal struct {
	Source
	Kind    SignalKind
	Room    domain.RoomName
	Target  SessionID
	Payload json.RawMessage
}

type WhoAmIRequested struct {
	Source
}
