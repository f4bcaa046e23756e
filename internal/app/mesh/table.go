// Package mesh tracks offer/answer negotiation for every member pair of a room.
package mesh

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Phase is the shared negotiation phase of one unordered pair.
type Phase int

const (
	Idle Phase = iota
	Offering
	// Answered means the answer was relayed and the peers are still
	// trickling candidates.
	Answered
	Connected
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Offering:
		return "offering"
	case Answered:
		return "answered"
	case Connected:
		return "connected"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is a pair's phase as seen from one side. The offering side moves
// Idle, OfferSent, AnswerReceived, Connected; the answering side moves
// Idle, OfferReceived, AnswerSent, Connected.
type State int

const (
	StateIdle State = iota
	StateOfferSent
	StateOfferReceived
	StateAnswerSent
	StateAnswerReceived
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOfferSent:
		return "offer_sent"
	case StateOfferReceived:
		return "offer_received"
	case StateAnswerSent:
		return "answer_sent"
	case StateAnswerReceived:
		return "answer_received"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

// Verdict tells the relay what to do with a signal.
type Verdict int

const (
	// Forward relays the signal to the target.
	Forward Verdict = iota
	// Glare suppresses an offer that would race an in-flight negotiation
	// or come from the non-initiating side of a fresh pair.
	Glare
	// Stale drops a signal for a pair that is not tracked.
	Stale
	// OutOfOrder drops an answer with no matching offer, or a rollback
	// from a side that has no offer pending.
	OutOfOrder
)

func (v Verdict) String() string {
	switch v {
	case Forward:
		return "forward"
	case Glare:
		return "glare"
	case Stale:
		return "stale"
	case OutOfOrder:
		return "out_of_order"
	}
	return "unknown"
}

type pairKey struct {
	room domain.RoomName
	a, b core.SessionID
}

func keyOf(room domain.RoomName, x, y core.SessionID) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{room: room, a: x, b: y}
}

type pair struct {
	initiator core.SessionID
	phase     Phase
	prev      Phase
	offerer   core.SessionID
	answerer  core.SessionID
}

// Pair is a read-only view of one negotiated link.
type Pair struct {
	A         core.SessionID `json:"a"`
	B         core.SessionID `json:"b"`
	Initiator core.SessionID `json:"initiator"`
	Phase     Phase          `json:"phase"`
}

// Table holds one entry per unordered member pair per room.
// The earlier-joined member of a pair is its initiator.
type Table struct {
	mu    sync.RWMutex
	pairs map[pairKey]*pair
}

func NewTable() *Table {
	return &Table{pairs: make(map[pairKey]*pair)}
}

// Track adds a pair between joiner and every existing member; existing
// members initiate. It returns the number of pairs added.
func (t *Table) Track(room domain.RoomName, existing []core.SessionID, joiner core.SessionID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	added := 0
	for _, sid := range existing {
		if sid == joiner {
			continue
		}
		k := keyOf(room, sid, joiner)
		if _, ok := t.pairs[k]; ok {
			continue
		}
		t.pairs[k] = &pair{initiator: sid}
		added++
	}
	log.Debug().Str("module", "mesh").Str("room", string(room)).Str("sid", string(joiner)).Int("pairs", added).Msg("tracked pairs")
	return added
}

// Offer checks and applies an offer from -> to.
func (t *Table) Offer(room domain.RoomName, from, to core.SessionID) Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pairs[keyOf(room, from, to)]
	if !ok {
		return Stale
	}
	if p.phase == Offering {
		return Glare
	}
	if p.phase == Idle && from != p.initiator {
		return Glare
	}
	p.prev, p.phase, p.offerer, p.answerer = p.phase, Offering, from, ""
	return Forward
}

// Answer checks and applies an answer from -> to. Only the side that
// received the pending offer may answer.
func (t *Table) Answer(room domain.RoomName, from, to core.SessionID) Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pairs[keyOf(room, from, to)]
	if !ok {
		return Stale
	}
	if p.phase != Offering || from == p.offerer {
		return OutOfOrder
	}
	p.phase, p.answerer = Answered, from
	return Forward
}

// Candidate notes a candidate from -> to. The first candidate after an
// answer completes the pair. Candidates are always forwarded.
func (t *Table) Candidate(room domain.RoomName, from, to core.SessionID) Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pairs[keyOf(room, from, to)]
	if ok && p.phase == Answered {
		p.phase, p.offerer, p.answerer = Connected, "", ""
	}
	return Forward
}

// Rollback abandons the pending offer and restores the phase it replaced.
// Only the offerer can roll back.
func (t *Table) Rollback(room domain.RoomName, from, to core.SessionID) Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pairs[keyOf(room, from, to)]
	if !ok {
		return Stale
	}
	if p.phase != Offering || from != p.offerer {
		return OutOfOrder
	}
	p.phase, p.offerer = p.prev, ""
	return Forward
}

// Drop forgets every pair of sid in room and returns how many went.
func (t *Table) Drop(room domain.RoomName, sid core.SessionID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k := range t.pairs {
		if k.room == room && (k.a == sid || k.b == sid) {
			delete(t.pairs, k)
			n++
		}
	}
	return n
}

// StateOf returns the pair phase from local's point of view.
func (t *Table) StateOf(room domain.RoomName, local, remote core.SessionID) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.pairs[keyOf(room, local, remote)]
	if !ok {
		return StateIdle, false
	}
	switch p.phase {
	case Offering:
		if p.offerer == local {
			return StateOfferSent, true
		}
		return StateOfferReceived, true
	case Answered:
		if p.answerer == local {
			return StateAnswerSent, true
		}
		return StateAnswerReceived, true
	case Connected:
		return StateConnected, true
	}
	return StateIdle, true
}

// Pairs lists the pairs of room ordered by (A, B).
func (t *Table) Pairs(room domain.RoomName) []Pair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Pair, 0)
	for k, p := range t.pairs {
		if k.room != room {
			continue
		}
		out = append(out, Pair{A: k.a, B: k.b, Initiator: p.initiator, Phase: p.phase})
	}
	slices.SortFunc(out, func(x, y Pair) int {
		return cmp.Or(cmp.Compare(x.A, y.A), cmp.Compare(x.B, y.B))
	})
	return out
}

// Negotiating counts pairs with an offer in flight across all rooms.
func (t *Table) Negotiating() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, p := range t.pairs {
		if p.phase == Offering {
			n++
		}
	}
	return n
}
