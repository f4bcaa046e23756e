package core

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// SessionID is the opaque key of one live connection.
type SessionID string

// SessionView is a read-only copy of a registry entry.
type SessionView struct {
	ID          SessionID
	ClientToken string
	Identity    domain.Identity
	Rooms       []domain.RoomName
	ConnectedAt time.Time
}
