package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrMissingField   = errors.New("missing field")
	ErrMissingPayload = errors.New("missing payload")
)

// ProtocolError carries the error code reported back to the client.
type ProtocolError struct {
	Code string
	Err  error
}

func (e *ProtocolError) Error() string { return e.Code + ": " + e.Err.Error() }
func (e *ProtocolError) Unwrap() error { return e.Err }

func reject(code string, err error) error {
	return &ProtocolError{Code: code, Err: err}
}

// ErrorCode maps a Decode error to its client error code.
func ErrorCode(err error) string {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return core.ErrCodeBadPayload
}

type identityPayload struct {
	Identity string `json:"identity"`
}

type messagePayload struct {
	Recipient string           `json:"recipient"`
	Text      string           `json:"text"`
	ReplyTo   *domain.ReplyRef `json:"replyTo"`
}

type deletePayload struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
}

type callPayload struct {
	ToIdentity string          `json:"toIdentity"`
	RoomName   string          `json:"roomName"`
	Signal     json.RawMessage `json:"signal"`
}

type answerCallPayload struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type peerSignalPayload struct {
	Room    string          `json:"room"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// Decode turns one client frame of the given type into an orchestrator
// event. Values are validated here so events only carry well-formed data.
func Decode(sid core.SessionID, typ string, data []byte) (core.Event, error) {
	src := core.Source{SID: sid}
	switch typ {
	case "userLoggedIn":
		var p identityPayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		id, err := domain.NewIdentity(p.Identity)
		if err != nil {
			return nil, reject(core.ErrCodeInvalidIdentity, err)
		}
		return core.IdentityAnnounced{Source: src, Identity: id}, nil

	case "whoami":
		return core.WhoAmIRequested{Source: src}, nil

	case "sendMessage":
		var p messagePayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		var recipient domain.Identity
		if p.Recipient != "" {
			id, err := domain.NewIdentity(p.Recipient)
			if err != nil {
				return nil, reject(core.ErrCodeInvalidIdentity, err)
			}
			recipient = id
		}
		return core.MessageSubmitted{Source: src, Recipient: recipient, Text: p.Text, ReplyTo: p.ReplyTo}, nil

	case "deleteMessage":
		var p deletePayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.MessageID == "" || p.ChatID == "" {
			return nil, reject(core.ErrCodeBadPayload, fmt.Errorf("%w: messageId and chatId", ErrMissingField))
		}
		return core.MessageRetracted{Source: src, MessageID: p.MessageID, ChatID: p.ChatID}, nil

	case "callUser":
		var p callPayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		to, err := domain.NewIdentity(p.ToIdentity)
		if err != nil {
			return nil, reject(core.ErrCodeInvalidIdentity, err)
		}
		room, err := domain.NewRoomName(p.RoomName)
		if err != nil {
			return nil, reject(core.ErrCodeInvalidRoom, err)
		}
		if isEmpty(p.Signal) {
			return nil, reject(core.ErrCodeBadPayload, ErrMissingPayload)
		}
		return core.CallRequested{Source: src, To: to, Room: room, Signal: p.Signal}, nil

	case "answerCall":
		var p answerCallPayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		if p.To == "" {
			return nil, reject(core.ErrCodeBadPayload, fmt.Errorf("%w: to", ErrMissingField))
		}
		if isEmpty(p.Signal) {
			return nil, reject(core.ErrCodeBadPayload, ErrMissingPayload)
		}
		return core.CallAnswered{Source: src, To: core.SessionID(p.To), Signal: p.Signal}, nil

	case "joinRoom", "leaveRoom":
		var p roomPayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		room, err := domain.NewRoomName(p.Room)
		if err != nil {
			return nil, reject(core.ErrCodeInvalidRoom, err)
		}
		if typ == "joinRoom" {
			return core.RoomJoinRequested{Source: src, Room: room}, nil
		}
		return core.RoomLeaveRequested{Source: src, Room: room}, nil

	case string(core.SignalOffer), string(core.SignalAnswer), string(core.SignalCandidate):
		var p peerSignalPayload
		if err := unmarshal(data, &p); err != nil {
			return nil, err
		}
		room, err := domain.NewRoomName(p.Room)
		if err != nil {
			return nil, reject(core.ErrCodeInvalidRoom, err)
		}
		if isEmpty(p.Payload) {
			return nil, reject(core.ErrCodeBadPayload, ErrMissingPayload)
		}
		return core.PeerSignal{
			Source:  src,
			Kind:    core.SignalKind(typ),
			Room:    room,
			Target:  core.SessionID(p.Target),
			Payload: p.Payload,
		}, nil
	}
	return nil, reject(core.ErrCodeUnknownEvent, fmt.Errorf("%w: %q", ErrUnknownEvent, typ))
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return reject(core.ErrCodeBadPayload, err)
	}
	return nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
