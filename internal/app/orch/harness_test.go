package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	limit  int
	closed bool
	// onClose runs after Close, outside the lock.
	onClose func()
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.limit > 0 && len(c.frames) >= c.limit {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if c.onClose != nil {
		c.onClose()
	}
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type frame map[string]any

func (c *fakeConn) all(t *testing.T) []frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		out = append(out, f)
	}
	return out
}

func (c *fakeConn) ofType(t *testing.T, typ string) []frame {
	t.Helper()
	var out []frame
	for _, f := range c.all(t) {
		if f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

// reset forgets captured frames.
func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type harness struct {
	t     *testing.T
	o     *Orchestrator
	conns map[core.SessionID]*fakeConn
}

func newHarness(t *testing.T, cfg Config) *harness {
	return &harness{t: t, o: New(cfg, nil), conns: make(map[core.SessionID]*fakeConn)}
}

func (h *harness) connect(sid core.SessionID) *fakeConn {
	conn := &fakeConn{}
	h.conns[sid] = conn
	h.o.step(core.Connected{Source: core.Source{SID: sid}, ClientToken: "tok-" + string(sid), Conn: conn})
	return conn
}

func (h *harness) login(sid core.SessionID, id domain.Identity) {
	h.o.step(core.IdentityAnnounced{Source: core.Source{SID: sid}, Identity: id})
}

func (h *harness) do(ev core.Event) { h.o.step(ev) }

func (h *harness) resetAll() {
	for _, c := range h.conns {
		c.reset()
	}
}

func src(sid core.SessionID) core.Source { return core.Source{SID: sid} }

func users(f frame) []any {
	list, _ := f["users"].([]any)
	return list
}
