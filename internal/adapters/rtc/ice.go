// Package rtc describes the ICE setup handed to browsers. Media never
// passes through the relay; peers connect to each other directly.
package rtc

import (
	"fmt"

	"github.com/dkeye/Relay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type ClientICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ClientConfig is the RTCConfiguration subset served to clients.
type ClientConfig struct {
	ICEServers           []ClientICEServer `json:"iceServers"`
	ICECandidatePoolSize uint8             `json:"iceCandidatePoolSize"`
}

// Configuration converts config entries into a pion configuration.
func Configuration(ice config.ICE) webrtc.Configuration {
	servers := ice.Servers
	if len(servers) == 0 {
		servers = config.DefaultICEServers()
	}
	cfg := webrtc.Configuration{ICECandidatePoolSize: ice.CandidatePoolSize}
	for _, s := range servers {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		cfg.ICEServers = append(cfg.ICEServers, srv)
	}
	return cfg
}

// Validate checks the server URLs by building a throwaway peer connection.
func Validate(cfg webrtc.Configuration) error {
	probe := cfg
	probe.ICECandidatePoolSize = 0
	pc, err := webrtc.NewPeerConnection(probe)
	if err != nil {
		return fmt.Errorf("invalid ice configuration: %w", err)
	}
	if err := pc.Close(); err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("close probe peer connection")
	}
	return nil
}

// ForClient renders cfg for the browser RTCPeerConnection constructor.
func ForClient(cfg webrtc.Configuration) ClientConfig {
	out := ClientConfig{
		ICEServers:           make([]ClientICEServer, 0, len(cfg.ICEServers)),
		ICECandidatePoolSize: cfg.ICECandidatePoolSize,
	}
	for _, s := range cfg.ICEServers {
		srv := ClientICEServer{URLs: s.URLs, Username: s.Username}
		if cred, ok := s.Credential.(string); ok {
			srv.Credential = cred
		}
		out.ICEServers = append(out.ICEServers, srv)
	}
	return out
}
