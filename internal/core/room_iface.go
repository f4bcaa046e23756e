package core

import (
	"github.com/dkeye/Relay/internal/domain"
)

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SessionID SessionID       `json:"sessionId"`
	Identity  domain.Identity `json:"identity"`
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

// RoomManager maps a room name to its member sessions.
// Rooms are created on first join and dropped when the last member leaves.
type RoomManager interface {
	// Join returns the members present before sid, in join order.
	// joined is false when sid was already a member.
	Join(name domain.RoomName, sid SessionID) (existing []SessionID, joined bool)
	// Leave returns the members still present after sid left.
	Leave(name domain.RoomName, sid SessionID) (remaining []SessionID, left bool)
	Members(name domain.RoomName) []SessionID
	Contains(name domain.RoomName, sid SessionID) bool
	Exists(name domain.RoomName) bool
	List() []RoomInfo
}
