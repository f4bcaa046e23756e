package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) connect(e core.Connected) {
	if !o.Registry.Bind(e.SID, e.ClientToken, e.Conn) {
		log.Warn().Str("module", "orch").Str("sid", string(e.SID)).Msg("session already bound")
		return
	}
	o.send(e.SID, core.SessionMsg{Type: core.TypeSession, SessionID: e.SID})
	o.send(e.SID, o.userList())
}

// disconnect runs the teardown cascade: rooms, negotiation pairs, presence.
// It is a no-op for a session that is already gone.
func (o *Orchestrator) disconnect(sid core.SessionID, reason string) {
	conn, _ := o.Registry.Conn(sid)
	view, ok := o.Registry.Unbind(sid)
	if !ok {
		return
	}
	if conn != nil {
		conn.Close()
	}
	for _, room := range view.Rooms {
		o.removeFromRoom(sid, room)
	}
	if view.Identity != "" && o.Presence.Unregister(view.Identity, sid) {
		o.broadcast(o.userList())
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("identity", string(view.Identity)).
		Int("rooms", len(view.Rooms)).Str("reason", reason).Msg("session disconnected")
}

func (o *Orchestrator) announce(sid core.SessionID, e core.IdentityAnnounced) {
	prev, ok := o.Registry.SetIdentity(sid, e.Identity)
	if !ok {
		return
	}
	changed := false
	if prev != "" && prev != e.Identity {
		changed = o.Presence.Unregister(prev, sid)
	}
	if o.Presence.Register(e.Identity, sid) {
		changed = true
	}
	if changed {
		o.broadcast(o.userList())
		return
	}
	o.send(sid, o.userList())
}

func (o *Orchestrator) whoami(sid core.SessionID) {
	view, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	rooms := view.Rooms
	if rooms == nil {
		rooms = []domain.RoomName{}
	}
	o.send(sid, core.WhoAmIMsg{
		Type:      core.TypeWhoAmI,
		SessionID: sid,
		Identity:  view.Identity,
		Rooms:     rooms,
	})
}

func (o *Orchestrator) userList() core.UserListMsg {
	users := o.Presence.Snapshot()
	if users == nil {
		users = []domain.Identity{}
	}
	return core.UserListMsg{Type: core.TypeUpdateUserList, Users: users}
}

// requireIdentity returns the announced identity or replies identity_required.
func (o *Orchestrator) requireIdentity(sid core.SessionID) (domain.Identity, bool) {
	id, _ := o.Registry.IdentityOf(sid)
	if id == "" {
		o.sendError(sid, core.ErrCodeIdentityRequired)
		return "", false
	}
	return id, true
}
