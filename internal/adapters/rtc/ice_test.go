package rtc

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Relay/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Defaults(t *testing.T) {
	cfg := Configuration(config.ICE{CandidatePoolSize: 10})
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun1.l.google.com:19302", "stun:stun2.l.google.com:19302"}, cfg.ICEServers[0].URLs)
	assert.Equal(t, uint8(10), cfg.ICECandidatePoolSize)
	assert.NoError(t, Validate(cfg))
}

func TestConfiguration_TURN(t *testing.T) {
	cfg := Configuration(config.ICE{Servers: []config.ICEServer{
		{URLs: []string{"turn:turn.example.com:3478"}, Username: "u", Credential: "p"},
	}})
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, webrtc.ICECredentialTypePassword, cfg.ICEServers[0].CredentialType)
	assert.NoError(t, Validate(cfg))

	b, err := json.Marshal(ForClient(cfg))
	require.NoError(t, err)
	assert.JSONEq(t, `{"iceServers":[{"urls":["turn:turn.example.com:3478"],"username":"u","credential":"p"}],"iceCandidatePoolSize":0}`, string(b))
}

func TestValidate_BadURL(t *testing.T) {
	err := Validate(Configuration(config.ICE{Servers: []config.ICEServer{{URLs: []string{"http://not-ice"}}}}))
	assert.Error(t, err)
}
