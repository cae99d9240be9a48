package signal

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/config"
	"github.com/kmelnick/huddle/internal/core"
)

type mockConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (m *mockConn) TrySend(f core.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
	return nil
}

func (m *mockConn) Close() {}

func (m *mockConn) ofType(t *testing.T, kind string) []map[string]any {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []map[string]any
	for _, f := range m.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(f, &ev))
		if ev["type"] == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

func newTestController() *Controller {
	orch := &app.Orchestrator{Registry: app.NewRegistry(), Rooms: app.NewRoomRegistry()}
	cfg := &config.Config{
		PingPeriod:       time.Minute,
		ReadLimit:        32768,
		ChatRateLimit:    2,
		ChatRateInterval: time.Minute,
	}
	return NewController(orch, cfg)
}

// attach wires a mock transport the way HandleSignal would.
func attach(ctl *Controller, cid core.ConnID) *mockConn {
	conn := &mockConn{}
	ctl.Orch.Attach(cid, conn)
	conn.reset()
	return conn
}

func TestDispatchBadJSON(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")

	ctl.handleMessage("c1", conn, []byte("{not json"))

	errs := conn.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "invalid payload")
}

func TestDispatchUnknownType(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")

	ctl.handleMessage("c1", conn, []byte(`{"type":"teleport"}`))

	require.Len(t, conn.ofType(t, "error"), 1)
}

func TestDispatchJoinServer(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")

	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1"}`))
	errs := conn.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "userId and userName are required")
	conn.reset()

	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	acks := conn.ofType(t, "joined-server")
	require.Len(t, acks, 1)
	assert.Equal(t, "u1", acks[0]["userId"])
}

func TestDispatchDuplicateIdentity(t *testing.T) {
	ctl := newTestController()
	c1 := attach(ctl, "c1")
	c2 := attach(ctl, "c2")

	ctl.handleMessage("c1", c1, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c2", c2, []byte(`{"type":"join-server","userId":"u1","userName":"Mallory"}`))

	errs := c2.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "already connected")
}

func TestDispatchEventBeforeIdentity(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")

	ctl.handleMessage("c1", conn, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))

	errs := conn.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "identity required")
}

func TestDispatchOfferMissingFields(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	conn.reset()

	ctl.handleMessage("c1", conn, []byte(`{"type":"offer","roomId":"r1"}`))

	errs := conn.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "targetUserId")
}

func TestDispatchOfferRelay(t *testing.T) {
	ctl := newTestController()
	c1 := attach(ctl, "c1")
	c2 := attach(ctl, "c2")
	ctl.handleMessage("c1", c1, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c2", c2, []byte(`{"type":"join-server","userId":"u2","userName":"Bob"}`))
	ctl.handleMessage("c1", c1, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c2", c2, []byte(`{"type":"join-room","roomId":"r1","userId":"u2","userName":"Bob"}`))
	c1.reset()
	c2.reset()

	ctl.handleMessage("c2", c2, []byte(`{"type":"offer","roomId":"r1","targetUserId":"u1","sdp":{"type":"offer","sdp":"v=0"}}`))

	offers := c1.ofType(t, "offer")
	require.Len(t, offers, 1)
	assert.Equal(t, "u2", offers[0]["fromUserId"])
	assert.Empty(t, c2.ofType(t, "offer"))
}

func TestDispatchToggleRequiresTypedFlag(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	conn.reset()

	// Missing isEnabled.
	ctl.handleMessage("c1", conn, []byte(`{"type":"toggle-video","roomId":"r1"}`))
	require.Len(t, conn.ofType(t, "error"), 1)
	conn.reset()

	// Wrong type for isEnabled.
	ctl.handleMessage("c1", conn, []byte(`{"type":"toggle-video","roomId":"r1","isEnabled":"yes"}`))
	require.Len(t, conn.ofType(t, "error"), 1)
	conn.reset()

	ctl.handleMessage("c1", conn, []byte(`{"type":"toggle-video","roomId":"r1","isEnabled":false}`))
	assert.Empty(t, conn.ofType(t, "error"))
}

func TestDispatchChatRateLimited(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	conn.reset()

	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"one"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"two"}`))
	assert.Len(t, conn.ofType(t, "chat-message"), 2)

	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"three"}`))
	errs := conn.ofType(t, "error")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0]["message"], "too many messages")
	assert.Len(t, conn.ofType(t, "chat-message"), 2, "over-limit message not broadcast")
}

func TestChatWindowResetsOnDisconnect(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	conn.reset()

	// Exhaust the window (limit is 2 in the test config).
	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"one"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"two"}`))
	ctl.handleMessage("c1", conn, []byte(`{"type":"chat-message","roomId":"r1","message":"three"}`))
	require.Len(t, conn.ofType(t, "error"), 1)

	// Transport drops, same teardown as readPump's defer.
	ctl.disconnect("c1")

	// Same user returns on a fresh connection with a fresh window.
	conn2 := attach(ctl, "c2")
	ctl.handleMessage("c2", conn2, []byte(`{"type":"join-server","userId":"u1","userName":"Alice"}`))
	ctl.handleMessage("c2", conn2, []byte(`{"type":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`))
	conn2.reset()

	ctl.handleMessage("c2", conn2, []byte(`{"type":"chat-message","roomId":"r1","message":"back"}`))
	assert.Len(t, conn2.ofType(t, "chat-message"), 1, "reconnected user can chat again")
	assert.Empty(t, conn2.ofType(t, "error"))
}

func TestDispatchPing(t *testing.T) {
	ctl := newTestController()
	conn := attach(ctl, "c1")

	ctl.handleMessage("c1", conn, []byte(`{"type":"ping"}`))

	require.Len(t, conn.ofType(t, "pong"), 1)
}
