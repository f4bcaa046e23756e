package orch

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// routeMessage delivers a chat message. The sending session gets
// messageSent; everyone else in scope gets receiveMessage.
func (o *Orchestrator) routeMessage(sid core.SessionID, e core.MessageSubmitted) {
	sender, ok := o.requireIdentity(sid)
	if !ok {
		return
	}
	msg, err := domain.NewChatMessage(sender, e.Recipient, e.Text, e.ReplyTo)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("rejected message")
		o.sendError(sid, core.ErrCodeInvalidText)
		return
	}
	received := core.ChatMsg{Type: core.TypeReceiveMessage, Message: msg}
	o.send(sid, core.ChatMsg{Type: core.TypeMessageSent, Message: msg})

	if !msg.IsDirect() {
		o.broadcast(received, sid)
		return
	}
	targets := o.Presence.Sessions(msg.Recipient)
	delivered := 0
	for _, target := range targets {
		if target == sid {
			continue
		}
		if o.send(target, received) {
			delivered++
		}
	}
	if len(targets) == 0 {
		o.Metrics.Drop(metrics.DropUnreachable)
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("recipient", string(msg.Recipient)).Msg("recipient offline, message dropped")
		return
	}
	log.Debug().Str("module", "orch").Str("chat", msg.ChatID).Str("id", msg.ID).Int("delivered", delivered).Msg("message routed")
}

// retractMessage relays a deletion notice to everyone; clients drop the
// message from their own view.
func (o *Orchestrator) retractMessage(sid core.SessionID, e core.MessageRetracted) {
	id, ok := o.requireIdentity(sid)
	if !ok {
		return
	}
	o.broadcast(core.MessageDeletedMsg{
		Type:      core.TypeMessageDeleted,
		MessageID: e.MessageID,
		ChatID:    e.ChatID,
	})
	log.Info().Str("module", "orch").Str("identity", string(id)).Str("chat", e.ChatID).Str("id", e.MessageID).Msg("message retracted")
}
