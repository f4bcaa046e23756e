package app

import "github.com/dkeye/Relay/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickSession
)

// Policy decides what happens to a session whose outbound queue is full.
type Policy interface {
	OnBackPressure(session core.SessionView) BackpressureAction
}

// SimplePolicy disconnects slow sessions; the disconnect cascade then
// retracts their presence and room memberships.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SessionView) BackpressureAction {
	return KickSession
}
