package orch

import (
	"github.com/dkeye/Relay/internal/app/mesh"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// callUser rings the callee. Only the first registered session rings
// unless RingAllDevices is set; the caller's own session never rings.
func (o *Orchestrator) callUser(sid core.SessionID, e core.CallRequested) {
	from, ok := o.requireIdentity(sid)
	if !ok {
		return
	}
	targets := without(o.Presence.Sessions(e.To), sid)
	if len(targets) == 0 {
		o.Metrics.Drop(metrics.DropUnreachable)
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("to", string(e.To)).Msg("callee offline, invite dropped")
		return
	}
	if !o.cfg.RingAllDevices {
		targets = targets[:1]
	}
	hey := core.HeyMsg{
		Type:          core.TypeHey,
		Signal:        e.Signal,
		FromSessionID: sid,
		FromIdentity:  from,
		RoomName:      e.Room,
	}
	for _, target := range targets {
		o.send(target, hey)
	}
	log.Info().Str("module", "orch").Str("from", string(from)).Str("to", string(e.To)).Str("room", string(e.Room)).Int("rung", len(targets)).Msg("call invite")
}

func (o *Orchestrator) answerCall(sid core.SessionID, e core.CallAnswered) {
	if e.To == sid {
		o.Metrics.Drop(metrics.DropSelf)
		return
	}
	ok := o.send(e.To, core.CallAcceptedMsg{
		Type:          core.TypeCallAccepted,
		Signal:        e.Signal,
		FromSessionID: sid,
	})
	if !ok {
		o.Metrics.Drop(metrics.DropUnreachable)
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("to", string(e.To)).Msg("caller gone, answer dropped")
	}
}

// relaySignal forwards an offer, answer or candidate inside a room. Without
// a target it fans out to every other member, checking each pair.
func (o *Orchestrator) relaySignal(sid core.SessionID, e core.PeerSignal) {
	if !o.Rooms.Contains(e.Room, sid) {
		o.sendError(sid, core.ErrCodeNotInRoom)
		return
	}
	if e.Target == sid {
		o.Metrics.Drop(metrics.DropSelf)
		return
	}
	var targets []core.SessionID
	if e.Target != "" {
		if !o.Rooms.Contains(e.Room, e.Target) {
			o.Metrics.Drop(metrics.DropStale)
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("target", string(e.Target)).Str("room", string(e.Room)).Msg("signal target not in room")
			return
		}
		targets = []core.SessionID{e.Target}
	} else {
		targets = without(o.Rooms.Members(e.Room), sid)
	}

	sdpType := webrtc.SDPTypeUnknown
	if e.Kind != core.SignalCandidate {
		sdpType = mesh.DescriptionType(e.Payload)
		if mismatched(e.Kind, sdpType) {
			log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", string(e.Kind)).Str("sdp_type", sdpType.String()).Msg("payload type does not match event")
		}
	}

	out := core.PeerSignalMsg{Type: string(e.Kind), Room: e.Room, From: sid, Payload: e.Payload}
	for _, target := range targets {
		verdict := o.check(e.Kind, sdpType, e.Room, sid, target)
		if verdict != mesh.Forward {
			o.Metrics.Drop(dropReason(verdict))
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Str("room", string(e.Room)).
				Str("event", string(e.Kind)).Stringer("verdict", verdict).Msg("signal suppressed")
			continue
		}
		o.send(target, out)
	}
}

func (o *Orchestrator) check(kind core.SignalKind, sdpType webrtc.SDPType, room domain.RoomName, from, to core.SessionID) mesh.Verdict {
	switch kind {
	case core.SignalOffer:
		if sdpType == webrtc.SDPTypeRollback {
			return o.Mesh.Rollback(room, from, to)
		}
		return o.Mesh.Offer(room, from, to)
	case core.SignalAnswer:
		return o.Mesh.Answer(room, from, to)
	case core.SignalCandidate:
		return o.Mesh.Candidate(room, from, to)
	}
	return mesh.Forward
}

func dropReason(v mesh.Verdict) string {
	switch v {
	case mesh.Glare:
		return metrics.DropGlare
	case mesh.Stale:
		return metrics.DropStale
	case mesh.OutOfOrder:
		return metrics.DropOutOfOrder
	}
	return v.String()
}

func mismatched(kind core.SignalKind, t webrtc.SDPType) bool {
	switch {
	case t == webrtc.SDPTypeUnknown:
		return false
	case kind == core.SignalOffer:
		return t != webrtc.SDPTypeOffer && t != webrtc.SDPTypeRollback
	case kind == core.SignalAnswer:
		return t != webrtc.SDPTypeAnswer && t != webrtc.SDPTypePranswer
	}
	return false
}
