package orch

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Relay/internal/app/mesh"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	offerSDP  = json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	answerSDP = json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	candidate = json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host","sdpMid":"0"}`)
)

func signal(from core.SessionID, kind core.SignalKind, room domain.RoomName, target core.SessionID, payload json.RawMessage) core.PeerSignal {
	return core.PeerSignal{Source: src(from), Kind: kind, Room: room, Target: target, Payload: payload}
}

func TestCallUser_FirstDeviceOnly(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	b2 := h.connect("b2")
	h.login("a1", "alice")
	h.login("b1", "bob")
	h.login("b2", "bob")

	h.do(core.CallRequested{Source: src("a1"), To: "bob", Room: "r1", Signal: offerSDP})

	hey := b1.ofType(t, core.TypeHey)
	require.Len(t, hey, 1)
	assert.Equal(t, "a1", hey[0]["fromSessionId"])
	assert.Equal(t, "alice", hey[0]["fromIdentity"])
	assert.Equal(t, "r1", hey[0]["roomName"])
	assert.Equal(t, map[string]any{"type": "offer", "sdp": "v=0"}, hey[0]["signal"])
	assert.Empty(t, b2.ofType(t, core.TypeHey))
	assert.Empty(t, a1.ofType(t, core.TypeHey))
}

func TestCallUser_RingAllDevices(t *testing.T) {
	h := newHarness(t, Config{RingAllDevices: true})
	h.connect("a1")
	b1 := h.connect("b1")
	b2 := h.connect("b2")
	h.login("a1", "alice")
	h.login("b1", "bob")
	h.login("b2", "bob")

	h.do(core.CallRequested{Source: src("a1"), To: "bob", Room: "r1", Signal: offerSDP})

	assert.Len(t, b1.ofType(t, core.TypeHey), 1)
	assert.Len(t, b2.ofType(t, core.TypeHey), 1)
}

func TestCallUser_NeverRingsCallerSession(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	a2 := h.connect("a2")
	h.login("a1", "alice")
	h.login("a2", "alice")

	h.do(core.CallRequested{Source: src("a1"), To: "alice", Room: "r1", Signal: offerSDP})

	assert.Empty(t, a1.ofType(t, core.TypeHey))
	assert.Len(t, a2.ofType(t, core.TypeHey), 1)
}

func TestCallUser_OfflineIsNoop(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	h.login("a1", "alice")
	a1.reset()

	h.do(core.CallRequested{Source: src("a1"), To: "bob", Room: "r1", Signal: offerSDP})
	assert.Empty(t, a1.all(t))
}

func TestAnswerCall(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")

	h.do(core.CallAnswered{Source: src("b1"), To: "a1", Signal: answerSDP})
	got := a1.ofType(t, core.TypeCallAccepted)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0]["fromSessionId"])
	assert.Equal(t, map[string]any{"type": "answer", "sdp": "v=0"}, got[0]["signal"])

	b1.reset()
	h.do(core.CallAnswered{Source: src("b1"), To: "gone", Signal: answerSDP})
	h.do(core.CallAnswered{Source: src("b1"), To: "b1", Signal: answerSDP})
	assert.Empty(t, b1.all(t))
}

func TestJoinRoom_Notifications(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	h.login("a1", "alice")
	h.login("b1", "bob")

	h.do(core.RoomJoinRequested{Source: src("a1"), Room: "r1"})
	state := a1.ofType(t, core.TypeRoomState)
	require.Len(t, state, 1)
	assert.Equal(t, []any{}, state[0]["members"])

	h.do(core.RoomJoinRequested{Source: src("b1"), Room: "r1"})
	joined := a1.ofType(t, core.TypeUserJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "b1", joined[0]["sessionId"])
	assert.Equal(t, "bob", joined[0]["identity"])
	assert.Empty(t, b1.ofType(t, core.TypeUserJoined), "joiner is not told about itself")

	state = b1.ofType(t, core.TypeRoomState)
	require.Len(t, state, 1)
	assert.Equal(t, []any{map[string]any{"sessionId": "a1", "identity": "alice"}}, state[0]["members"])

	// Rejoin is idempotent.
	a1.reset()
	h.do(core.RoomJoinRequested{Source: src("b1"), Room: "r1"})
	assert.Empty(t, a1.all(t))
	assert.Len(t, h.o.Mesh.Pairs("r1"), 1)
}

func TestLeaveRoom(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	h.connect("b1")
	for _, room := range []domain.RoomName{"r1", "r2"} {
		h.do(core.RoomJoinRequested{Source: src("a1"), Room: room})
		h.do(core.RoomJoinRequested{Source: src("b1"), Room: room})
	}
	a1.reset()

	h.do(core.RoomLeaveRequested{Source: src("b1"), Room: "r1"})
	left := a1.ofType(t, core.TypeUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "b1", left[0]["sessionId"])
	assert.Equal(t, "r1", left[0]["room"])
	assert.Empty(t, h.o.Mesh.Pairs("r1"))
	assert.Len(t, h.o.Mesh.Pairs("r2"), 1, "other rooms are untouched")
	assert.Equal(t, []domain.RoomName{"r2"}, h.o.Registry.RoomsOf("b1"))

	a1.reset()
	h.do(core.RoomLeaveRequested{Source: src("b1"), Room: "r1"})
	assert.Empty(t, a1.all(t), "leaving a room twice is a no-op")

	h.do(core.RoomLeaveRequested{Source: src("a1"), Room: "r1"})
	assert.False(t, h.o.Rooms.Exists("r1"), "empty room is dropped")
}

func TestMesh_ExistingMembersInitiate(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	c1 := h.connect("c1")
	for _, sid := range []core.SessionID{"a1", "b1", "c1"} {
		h.do(core.RoomJoinRequested{Source: src(sid), Room: "r1"})
	}
	require.Len(t, h.o.Mesh.Pairs("r1"), 3)
	h.resetAll()

	// The joiner offering first is glare.
	h.do(signal("c1", core.SignalOffer, "r1", "a1", offerSDP))
	assert.Empty(t, a1.ofType(t, "offer"))

	h.do(signal("a1", core.SignalOffer, "r1", "c1", offerSDP))
	got := c1.ofType(t, "offer")
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0]["from"])
	assert.Equal(t, "r1", got[0]["room"])

	// Opposing offer while a1's is in flight is suppressed.
	h.do(signal("c1", core.SignalOffer, "r1", "a1", offerSDP))
	assert.Empty(t, a1.ofType(t, "offer"))

	h.do(signal("c1", core.SignalCandidate, "r1", "a1", candidate))
	assert.Len(t, a1.ofType(t, "ice-candidate"), 1, "candidates are relayed before the answer")

	h.do(signal("c1", core.SignalAnswer, "r1", "a1", answerSDP))
	require.Len(t, a1.ofType(t, "answer"), 1)
	st, _ := h.o.Mesh.StateOf("r1", "a1", "c1")
	assert.Equal(t, mesh.StateAnswerReceived, st)
	st, _ = h.o.Mesh.StateOf("r1", "c1", "a1")
	assert.Equal(t, mesh.StateAnswerSent, st)

	h.do(signal("a1", core.SignalCandidate, "r1", "c1", candidate))
	st, _ = h.o.Mesh.StateOf("r1", "a1", "c1")
	assert.Equal(t, mesh.StateConnected, st)

	assert.Empty(t, b1.all(t), "targeted signals reach only the target")
}

func TestMesh_FanOutWithoutTarget(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	c1 := h.connect("c1")
	for _, sid := range []core.SessionID{"a1", "b1", "c1"} {
		h.do(core.RoomJoinRequested{Source: src(sid), Room: "r1"})
	}
	h.resetAll()

	h.do(signal("b1", core.SignalOffer, "r1", "", offerSDP))
	assert.Empty(t, a1.ofType(t, "offer"), "b1 joined after a1")
	assert.Len(t, c1.ofType(t, "offer"), 1)
	assert.Empty(t, b1.ofType(t, "offer"))

	h.do(signal("b1", core.SignalCandidate, "r1", "", candidate))
	assert.Len(t, a1.ofType(t, "ice-candidate"), 1)
	assert.Len(t, c1.ofType(t, "ice-candidate"), 1)
}

func TestMesh_Rollback(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	h.do(core.RoomJoinRequested{Source: src("a1"), Room: "r1"})
	h.do(core.RoomJoinRequested{Source: src("b1"), Room: "r1"})

	h.do(signal("a1", core.SignalOffer, "r1", "b1", offerSDP))
	h.do(signal("a1", core.SignalOffer, "r1", "b1", json.RawMessage(`{"type":"rollback"}`)))
	assert.Len(t, b1.ofType(t, "offer"), 2)

	st, _ := h.o.Mesh.StateOf("r1", "a1", "b1")
	assert.Equal(t, mesh.StateIdle, st)

	// A rollback from the side that did not offer is dropped.
	h.do(signal("a1", core.SignalOffer, "r1", "b1", offerSDP))
	a1.reset()
	h.do(signal("b1", core.SignalOffer, "r1", "a1", json.RawMessage(`{"type":"rollback"}`)))
	assert.Empty(t, a1.ofType(t, "offer"))
	st, _ = h.o.Mesh.StateOf("r1", "a1", "b1")
	assert.Equal(t, mesh.StateOfferSent, st)

	h.do(signal("b1", core.SignalAnswer, "r1", "a1", answerSDP))
	assert.Len(t, a1.ofType(t, "answer"), 1, "the pending offer is still answerable")
}

func TestMesh_StaleAndInvalidSignals(t *testing.T) {
	h := newHarness(t, Config{})
	a1 := h.connect("a1")
	b1 := h.connect("b1")
	h.do(core.RoomJoinRequested{Source: src("a1"), Room: "r1"})
	h.resetAll()

	h.do(signal("b1", core.SignalOffer, "r1", "a1", offerSDP))
	errs := b1.ofType(t, core.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, core.ErrCodeNotInRoom, errs[0]["error"])
	assert.Empty(t, a1.all(t))

	h.do(signal("a1", core.SignalCandidate, "r1", "b1", candidate))
	assert.Empty(t, b1.ofType(t, "ice-candidate"), "target outside the room")

	h.do(signal("a1", core.SignalCandidate, "r1", "a1", candidate))
	assert.Empty(t, a1.all(t), "self-targeted signal")
}

func TestRoomDetail(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect("a1")
	h.connect("b1")
	h.login("a1", "alice")
	h.do(core.RoomJoinRequested{Source: src("a1"), Room: "r1"})
	h.do(core.RoomJoinRequested{Source: src("b1"), Room: "r1"})

	d, ok := h.o.Room("r1")
	require.True(t, ok)
	assert.Equal(t, []core.MemberDTO{{SessionID: "a1", Identity: "alice"}, {SessionID: "b1"}}, d.Members)
	require.Len(t, d.Pairs, 1)
	assert.Equal(t, core.SessionID("a1"), d.Pairs[0].Initiator)

	_, ok = h.o.Room("nope")
	assert.False(t, ok)
}
