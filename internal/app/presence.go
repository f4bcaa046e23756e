package app

import (
	"maps"
	"slices"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Presence tracks identity -> sessions. Sessions keep registration order so
// the first device of a multi-tab identity is well defined.
type Presence struct {
	mu         sync.RWMutex
	byIdentity map[domain.Identity][]core.SessionID
}

func NewPresence() core.PresenceDirectory {
	return &Presence{byIdentity: make(map[domain.Identity][]core.SessionID)}
}

func (p *Presence) Register(id domain.Identity, sid core.SessionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sessions := p.byIdentity[id]
	if slices.Contains(sessions, sid) {
		return false
	}
	p.byIdentity[id] = append(sessions, sid)
	changed := len(sessions) == 0
	log.Debug().Str("module", "app.presence").Str("identity", string(id)).Str("sid", string(sid)).
		Int("sessions", len(sessions)+1).Bool("changed", changed).Msg("register")
	return changed
}

func (p *Presence) Unregister(id domain.Identity, sid core.SessionID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sessions, ok := p.byIdentity[id]
	if !ok {
		return false
	}
	i := slices.Index(sessions, sid)
	if i < 0 {
		return false
	}
	sessions = slices.Delete(sessions, i, i+1)
	if len(sessions) == 0 {
		delete(p.byIdentity, id)
		log.Debug().Str("module", "app.presence").Str("identity", string(id)).Msg("identity offline")
		return true
	}
	p.byIdentity[id] = sessions
	return false
}

func (p *Presence) Snapshot() []domain.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.byIdentity))
}

func (p *Presence) Sessions(id domain.Identity) []core.SessionID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.byIdentity[id])
}
