package app

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomMembers keeps join order; earlier members initiate offers to later ones.
type roomMembers struct {
	order []core.SessionID
}

func (m *roomMembers) contains(sid core.SessionID) bool {
	return slices.Contains(m.order, sid)
}

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*roomMembers
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{rooms: make(map[domain.RoomName]*roomMembers)}
}

func (f *RoomManagerImpl) Join(name domain.RoomName, sid core.SessionID) ([]core.SessionID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok {
		room = &roomMembers{}
		f.rooms[name] = room
		log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room created")
	}
	if room.contains(sid) {
		return nil, false
	}
	existing := slices.Clone(room.order)
	room.order = append(room.order, sid)
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Str("sid", string(sid)).Int("members", len(room.order)).Msg("member added")
	return existing, true
}

func (f *RoomManagerImpl) Leave(name domain.RoomName, sid core.SessionID) ([]core.SessionID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok {
		return nil, false
	}
	i := slices.Index(room.order, sid)
	if i < 0 {
		return nil, false
	}
	room.order = slices.Delete(room.order, i, i+1)
	log.Info().Str("module", "app.rooms").Str("room", string(name)).Str("sid", string(sid)).Int("members", len(room.order)).Msg("member removed")
	if len(room.order) == 0 {
		delete(f.rooms, name)
		log.Info().Str("module", "app.rooms").Str("room", string(name)).Msg("room dropped")
		return nil, true
	}
	return slices.Clone(room.order), true
}

func (f *RoomManagerImpl) Members(name domain.RoomName) []core.SessionID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if room, ok := f.rooms[name]; ok {
		return slices.Clone(room.order)
	}
	return nil
}

func (f *RoomManagerImpl) Contains(name domain.RoomName, sid core.SessionID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return ok && room.contains(sid)
}

func (f *RoomManagerImpl) Exists(name domain.RoomName) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.rooms[name]
	return ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for name, r := range f.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: len(r.order)})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
