package app

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	ClientToken string
	Identity    domain.Identity
	Rooms       map[domain.RoomName]struct{}
	Conn        core.SignalConnection
	ConnectedAt time.Time
}

func (e *sessionEntry) view(sid core.SessionID) core.SessionView {
	return core.SessionView{
		ID:          sid,
		ClientToken: e.ClientToken,
		Identity:    e.Identity,
		Rooms:       slices.Sorted(maps.Keys(e.Rooms)),
		ConnectedAt: e.ConnectedAt,
	}
}

// Registry owns every live session. A session's Rooms set mirrors the
// RoomManager membership; the orchestrator updates both in the same step.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// Bind creates the session. It returns false if sid is already bound.
func (r *Registry) Bind(sid core.SessionID, clientToken string, conn core.SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		return false
	}
	r.sessions[sid] = &sessionEntry{
		ClientToken: clientToken,
		Rooms:       make(map[domain.RoomName]struct{}),
		Conn:        conn,
		ConnectedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", clientToken).Msg("bound session")
	return true
}

// Unbind removes the session and returns its last state.
func (r *Registry) Unbind(sid core.SessionID) (core.SessionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return core.SessionView{}, false
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
	return e.view(sid), true
}

func (r *Registry) Get(sid core.SessionID) (core.SessionView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return core.SessionView{}, false
	}
	return e.view(sid), true
}

func (r *Registry) Conn(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// IdentityOf returns the announced identity; it is empty until userLoggedIn.
func (r *Registry) IdentityOf(sid core.SessionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Identity, true
	}
	return "", false
}

// SetIdentity overwrites the identity and returns the previous one.
func (r *Registry) SetIdentity(sid core.SessionID, id domain.Identity) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	prev := e.Identity
	e.Identity = id
	if prev != id {
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("identity", string(id)).Str("previous", string(prev)).Msg("updated identity")
	}
	return prev, true
}

func (r *Registry) AddRoom(sid core.SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Rooms[room] = struct{}{}
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID, room domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if _, in := e.Rooms[room]; !in {
		return false
	}
	delete(e.Rooms, room)
	return true
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(e.Rooms))
}

// All returns every live session id, sorted.
func (r *Registry) All() []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.sessions))
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
