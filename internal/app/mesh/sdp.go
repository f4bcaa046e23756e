package mesh

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// DescriptionType reads the SDP type of an opaque offer/answer payload.
// Payloads that are not session descriptions yield SDPTypeUnknown.
func DescriptionType(payload json.RawMessage) webrtc.SDPType {
	if len(payload) == 0 {
		return webrtc.SDPTypeUnknown
	}
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(payload, &desc); err != nil {
		return webrtc.SDPTypeUnknown
	}
	return desc.Type
}
