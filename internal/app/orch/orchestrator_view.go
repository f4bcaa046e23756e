package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// View is an immutable copy of presence and room state taken between
// steps. Readers outside the event loop only ever see a whole step.
type View struct {
	Users []domain.Identity
	Rooms []core.RoomInfo

	rooms map[domain.RoomName]RoomDetail
}

// Room returns the detail of name as of the view.
func (v *View) Room(name domain.RoomName) (RoomDetail, bool) {
	d, ok := v.rooms[name]
	return d, ok
}

func (o *Orchestrator) publish() {
	v := &View{
		Users: o.Presence.Snapshot(),
		Rooms: o.Rooms.List(),
	}
	if v.Users == nil {
		v.Users = []domain.Identity{}
	}
	if v.Rooms == nil {
		v.Rooms = []core.RoomInfo{}
	}
	v.rooms = make(map[domain.RoomName]RoomDetail, len(v.Rooms))
	for _, info := range v.Rooms {
		v.rooms[info.Name] = RoomDetail{
			Name:    info.Name,
			Members: o.memberDTOs(o.Rooms.Members(info.Name)),
			Pairs:   o.Mesh.Pairs(info.Name),
		}
	}
	o.view.Store(v)
}

// View returns the state published by the last completed step.
func (o *Orchestrator) View() *View {
	return o.view.Load()
}

// Room returns members in join order and negotiation pairs of name.
func (o *Orchestrator) Room(name domain.RoomName) (RoomDetail, bool) {
	return o.View().Room(name)
}
