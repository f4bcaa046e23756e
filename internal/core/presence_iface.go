package core

import "github.com/dkeye/Relay/internal/domain"

// PresenceDirectory maps an identity to its live sessions.
// An identity is listed iff it has at least one session.
type PresenceDirectory interface {
	// Register reports whether the set of distinct identities changed.
	Register(id domain.Identity, sid SessionID) (changed bool)
	// Unregister reports whether the set of distinct identities changed.
	Unregister(id domain.Identity, sid SessionID) (changed bool)
	// Snapshot returns the sorted, de-duplicated online identities.
	Snapshot() []domain.Identity
	// Sessions returns the sessions of id in registration order.
	Sessions(id domain.Identity) []SessionID
}
