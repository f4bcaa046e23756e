package orch

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync/atomic"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/mesh"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("orchestrator stopped")

type Config struct {
	// RingAllDevices delivers a call invite to every session of the callee
	// instead of the first registered one.
	RingAllDevices bool
	// QueueSize bounds the inbound event queue.
	QueueSize int
}

// Orchestrator applies every inbound event as one atomic step. Only the
// Run goroutine mutates state; readers outside it use View, which is
// republished after each step.
type Orchestrator struct {
	Registry *app.Registry
	Presence core.PresenceDirectory
	Rooms    core.RoomManager
	Mesh     *mesh.Table
	Policy   app.Policy
	Metrics  *metrics.Metrics

	cfg    Config
	events chan core.Event
	done   chan struct{}
	view   atomic.Pointer[View]

	// kicked sessions are torn down after the current event completes.
	kicked []core.SessionID
}

func New(cfg Config, m *metrics.Metrics) *Orchestrator {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if m == nil {
		m = metrics.New(nil)
	}
	o := &Orchestrator{
		Registry: app.NewRegistry(),
		Presence: app.NewPresence(),
		Rooms:    app.NewRoomManager(),
		Mesh:     mesh.NewTable(),
		Policy:   app.SimplePolicy{},
		Metrics:  m,
		cfg:      cfg,
		events:   make(chan core.Event, cfg.QueueSize),
		done:     make(chan struct{}),
	}
	o.publish()
	return o
}

// Submit enqueues ev, blocking while the queue is full.
func (o *Orchestrator) Submit(ctx context.Context, ev core.Event) error {
	select {
	case <-o.done:
		return ErrStopped
	default:
	}
	select {
	case o.events <- ev:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled, then closes every session.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	log.Info().Str("module", "orch").Int("queue", cap(o.events)).Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return nil
		case ev := <-o.events:
			o.step(ev)
		}
	}
}

func (o *Orchestrator) step(ev core.Event) {
	o.handle(ev)
	for len(o.kicked) > 0 {
		sid := o.kicked[0]
		o.kicked = o.kicked[1:]
		o.disconnect(sid, "kicked")
	}
	o.publish()
	o.observe()
}

func (o *Orchestrator) handle(ev core.Event) {
	sid := ev.Origin()
	kind := eventKind(ev)
	o.Metrics.Event(kind)

	if _, ok := ev.(core.Connected); !ok {
		if _, live := o.Registry.Get(sid); !live {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", kind).Msg("event from unbound session")
			o.Metrics.Drop(metrics.DropStale)
			return
		}
	}

	switch e := ev.(type) {
	case core.Connected:
		o.connect(e)
	case core.Disconnected:
		o.disconnect(sid, "closed")
	case core.IdentityAnnounced:
		o.announce(sid, e)
	case core.WhoAmIRequested:
		o.whoami(sid)
	case core.MessageSubmitted:
		o.routeMessage(sid, e)
	case core.MessageRetracted:
		o.retractMessage(sid, e)
	case core.CallRequested:
		o.callUser(sid, e)
	case core.CallAnswered:
		o.answerCall(sid, e)
	case core.RoomJoinRequested:
		o.joinRoom(sid, e.Room)
	case core.RoomLeaveRequested:
		o.leaveRoom(sid, e.Room)
	case core.PeerSignal:
		o.relaySignal(sid, e)
	default:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", kind).Msg("unhandled event")
	}
}

func eventKind(ev core.Event) string {
	switch e := ev.(type) {
	case core.Connected:
		return "connect"
	case core.Disconnected:
		return "disconnect"
	case core.IdentityAnnounced:
		return "userLoggedIn"
	case core.WhoAmIRequested:
		return "whoami"
	case core.MessageSubmitted:
		return "sendMessage"
	case core.MessageRetracted:
		return "deleteMessage"
	case core.CallRequested:
		return "callUser"
	case core.CallAnswered:
		return "answerCall"
	case core.RoomJoinRequested:
		return "joinRoom"
	case core.RoomLeaveRequested:
		return "leaveRoom"
	case core.PeerSignal:
		return string(e.Kind)
	}
	return "unknown"
}

// send encodes v and queues it on sid. It reports whether the frame was
// accepted; a full queue is handed to the backpressure policy.
func (o *Orchestrator) send(sid core.SessionID, v any) bool {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("send marshal")
		return false
	}
	err = conn.TrySend(data)
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrBackpressure):
		o.Metrics.Drop(metrics.DropBackpressure)
		o.onBackpressure(sid)
	default:
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("send failed")
	}
	return false
}

func (o *Orchestrator) onBackpressure(sid core.SessionID) {
	if o.Policy == nil {
		return
	}
	view, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	switch o.Policy.OnBackPressure(view) {
	case app.KickSession:
		if slices.Contains(o.kicked, sid) {
			return
		}
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("identity", string(view.Identity)).Msg("kicking slow session")
		o.Metrics.Kicks.Inc()
		o.kicked = append(o.kicked, sid)
	case app.DropFrame, app.NoAction:
	}
}

func (o *Orchestrator) sendError(sid core.SessionID, code string) {
	o.send(sid, core.NewErrorMsg(code))
}

// broadcast sends v to every live session except the excluded ones.
func (o *Orchestrator) broadcast(v any, except ...core.SessionID) {
	for _, sid := range o.Registry.All() {
		if slices.Contains(except, sid) {
			continue
		}
		o.send(sid, v)
	}
}

func (o *Orchestrator) observe() {
	v := o.View()
	o.Metrics.Sessions.Set(float64(o.Registry.Count()))
	o.Metrics.OnlineIdentities.Set(float64(len(v.Users)))
	o.Metrics.Rooms.Set(float64(len(v.Rooms)))
	o.Metrics.NegotiatingPairs.Set(float64(o.Mesh.Negotiating()))
}

func (o *Orchestrator) shutdown() {
	sids := o.Registry.All()
	for _, sid := range sids {
		if conn, ok := o.Registry.Conn(sid); ok {
			conn.Close()
		}
	}
	log.Info().Str("module", "orch").Int("sessions", len(sids)).Msg("event loop stopped")
}
