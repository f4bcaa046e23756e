package orch

import (
	"github.com/dkeye/Relay/internal/app/mesh"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomDetail is the read model served for a single room.
type RoomDetail struct {
	Name    domain.RoomName  `json:"name"`
	Members []core.MemberDTO `json:"members"`
	Pairs   []mesh.Pair      `json:"pairs"`
}

// joinRoom adds sid to room. Existing members get userJoined and will
// initiate offers; the joiner gets roomState listing them.
func (o *Orchestrator) joinRoom(sid core.SessionID, room domain.RoomName) {
	existing, joined := o.Rooms.Join(room, sid)
	if !joined {
		existing = without(o.Rooms.Members(room), sid)
	} else {
		o.Registry.AddRoom(sid, room)
		id, _ := o.Registry.IdentityOf(sid)
		for _, member := range existing {
			o.send(member, core.UserJoinedMsg{
				Type:      core.TypeUserJoined,
				SessionID: sid,
				Identity:  id,
				Room:      room,
			})
		}
		o.Mesh.Track(room, existing, sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Int("peers", len(existing)).Msg("joined room")
	}
	o.send(sid, core.RoomStateMsg{
		Type:    core.TypeRoomState,
		Room:    room,
		Members: o.memberDTOs(existing),
	})
}

func (o *Orchestrator) leaveRoom(sid core.SessionID, room domain.RoomName) {
	if !o.Rooms.Contains(room, sid) {
		return
	}
	o.Registry.RemoveRoom(sid, room)
	o.removeFromRoom(sid, room)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(room)).Msg("left room")
}

// removeFromRoom drops membership and pairs and tells the remaining peers.
func (o *Orchestrator) removeFromRoom(sid core.SessionID, room domain.RoomName) {
	remaining, left := o.Rooms.Leave(room, sid)
	if !left {
		return
	}
	o.Mesh.Drop(room, sid)
	for _, member := range remaining {
		o.send(member, core.UserLeftMsg{Type: core.TypeUserLeft, SessionID: sid, Room: room})
	}
}

func (o *Orchestrator) memberDTOs(sids []core.SessionID) []core.MemberDTO {
	out := make([]core.MemberDTO, 0, len(sids))
	for _, sid := range sids {
		id, _ := o.Registry.IdentityOf(sid)
		out = append(out, core.MemberDTO{SessionID: sid, Identity: id})
	}
	return out
}

func without(sids []core.SessionID, sid core.SessionID) []core.SessionID {
	out := make([]core.SessionID, 0, len(sids))
	for _, s := range sids {
		if s != sid {
			out = append(out, s)
		}
	}
	return out
}
