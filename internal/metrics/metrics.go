// Package metrics exposes relay state to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons.
const (
	DropUnreachable  = "unreachable"
	DropStale        = "stale"
	DropGlare        = "glare"
	DropOutOfOrder   = "out_of_order"
	DropSelf         = "self_target"
	DropBackpressure = "backpressure"
	DropRateLimited  = "rate_limited"
)

type Metrics struct {
	Sessions         prometheus.Gauge
	OnlineIdentities prometheus.Gauge
	Rooms            prometheus.Gauge
	NegotiatingPairs prometheus.Gauge
	Events           *prometheus.CounterVec
	Drops            *prometheus.CounterVec
	Kicks            prometheus.Counter
}

// New builds the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay", Name: "sessions",
			Help: "Live signaling sessions.",
		}),
		OnlineIdentities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay", Name: "online_identities",
			Help: "Distinct identities with at least one live session.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay", Name: "rooms",
			Help: "Non-empty call rooms.",
		}),
		NegotiatingPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay", Name: "negotiating_pairs",
			Help: "Peer pairs with an offer in flight.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay", Name: "events_total",
			Help: "Inbound events processed by the orchestrator.",
		}, []string{"type"}),
		Drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay", Name: "drops_total",
			Help: "Frames or signals dropped, by reason.",
		}, []string{"reason"}),
		Kicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay", Name: "kicks_total",
			Help: "Sessions closed by the backpressure policy.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Sessions, m.OnlineIdentities, m.Rooms, m.NegotiatingPairs, m.Events, m.Drops, m.Kicks)
	}
	return m
}

func (m *Metrics) Drop(reason string) {
	m.Drops.WithLabelValues(reason).Inc()
}

func (m *Metrics) Event(kind string) {
	m.Events.WithLabelValues(kind).Inc()
}
