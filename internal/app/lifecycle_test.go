package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avoronov/signalhub/internal/core"
	"github.com/avoronov/signalhub/internal/domain"
)

// fakeConn records every frame handed to it. failSend simulates a full
// outbound buffer.
type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	failSend bool
	closed   int
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("backpressure")
	}
	cp := make([]byte, len(f))
	copy(cp, f)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *fakeConn) closedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventTypes decodes the type field of every captured frame, in order.
func (c *fakeConn) eventTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(f, &env) == nil {
			out = append(out, env.Type)
		}
	}
	return out
}

func (c *fakeConn) lastFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

// fakeGateway answers existence from a set and records write calls.
type fakeGateway struct {
	mu        sync.Mutex
	rooms     map[domain.RoomID]bool
	existsErr error

	occupancy map[domain.RoomID]int
	inactive  map[domain.RoomID]int
}

func newFakeGateway(rooms ...domain.RoomID) *fakeGateway {
	g := &fakeGateway{
		rooms:     make(map[domain.RoomID]bool),
		occupancy: make(map[domain.RoomID]int),
		inactive:  make(map[domain.RoomID]int),
	}
	for _, r := range rooms {
		g.rooms[r] = true
	}
	return g
}

func (g *fakeGateway) Exists(_ context.Context, id domain.RoomID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.existsErr != nil {
		return false, g.existsErr
	}
	return g.rooms[id], nil
}

func (g *fakeGateway) ReportOccupancy(_ context.Context, id domain.RoomID, count int) error {
	g.mu.Lock()
	g.occupancy[id] = count
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) MarkInactive(_ context.Context, id domain.RoomID) error {
	g.mu.Lock()
	g.inactive[id]++
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) reportedOccupancy(id domain.RoomID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.occupancy[id]
}

func (g *fakeGateway) inactiveCount(id domain.RoomID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inactive[id]
}

func newTestOrchestrator(gw core.RoomGateway) *Orchestrator {
	return NewOrchestrator(gw, SimplePolicy{}, time.Second)
}

func TestJoin_RosterAndNotifications(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	alice, bob := &fakeConn{}, &fakeConn{}
	o.Register("a", alice)
	o.Register("b", bob)

	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "lobby", "Bob"))

	// Alice got an empty roster then Bob's arrival.
	require.Equal(t, []string{EventRoomUsers, EventUserJoined}, alice.eventTypes())

	var joined UserJoinedEvent
	require.NoError(t, json.Unmarshal(alice.lastFrame(), &joined))
	require.Equal(t, domain.ConnID("b"), joined.ConnectionID)
	require.Equal(t, "Bob", joined.DisplayName)

	// Bob's roster holds Alice only, never himself.
	require.Equal(t, []string{EventRoomUsers}, bob.eventTypes())
	var roster RoomUsersEvent
	require.NoError(t, json.Unmarshal(bob.lastFrame(), &roster))
	require.Len(t, roster.Participants, 1)
	require.Equal(t, domain.ConnID("a"), roster.Participants[0].ConnID)

	require.Eventually(t, func() bool {
		return gw.reportedOccupancy("lobby") == 2
	}, time.Second, 10*time.Millisecond)
}

func TestJoin_UnknownRoomDenied(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	conn := &fakeConn{}
	o.Register("a", conn)

	err := o.Join(context.Background(), "a", "ghost", "Alice")
	require.ErrorIs(t, err, ErrRoomNotFound)
	require.Equal(t, 0, o.Registry().Occupancy("ghost"))
	require.Empty(t, conn.eventTypes())
}

func TestJoin_GatewayFailureDenied(t *testing.T) {
	gw := newFakeGateway("lobby")
	gw.existsErr = errors.New("store down")
	o := newTestOrchestrator(gw)

	o.Register("a", &fakeConn{})
	err := o.Join(context.Background(), "a", "lobby", "Alice")
	require.ErrorIs(t, err, ErrRoomNotFound)
	require.Equal(t, 0, o.Registry().Occupancy("lobby"))
}

func TestJoin_UnknownConnection(t *testing.T) {
	o := newTestOrchestrator(newFakeGateway("lobby"))
	err := o.Join(context.Background(), "nobody", "lobby", "X")
	require.ErrorIs(t, err, ErrUnknownConnection)
}

func TestJoin_SwitchRoomsLeavesOldFirst(t *testing.T) {
	gw := newFakeGateway("x", "y")
	o := newTestOrchestrator(gw)

	alice, bob := &fakeConn{}, &fakeConn{}
	o.Register("a", alice)
	o.Register("b", bob)

	require.NoError(t, o.Join(context.Background(), "a", "x", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "x", "Bob"))
	require.NoError(t, o.Join(context.Background(), "b", "y", "Bob"))

	require.False(t, o.Registry().Contains("x", "b"))
	require.True(t, o.Registry().Contains("y", "b"))
	require.Equal(t, 1, o.Registry().Occupancy("x"))

	// Alice saw Bob arrive and then leave.
	require.Equal(t, []string{EventRoomUsers, EventUserJoined, EventUserLeft}, alice.eventTypes())

	require.Eventually(t, func() bool {
		return gw.reportedOccupancy("x") == 1 && gw.reportedOccupancy("y") == 1
	}, time.Second, 10*time.Millisecond)
}

func TestLeave_LastOccupantMarksInactiveOnce(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	conn := &fakeConn{}
	o.Register("a", conn)
	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))

	o.Leave("a")
	require.Equal(t, 0, o.Registry().RoomCount())

	// Second leave is a no-op.
	o.Leave("a")

	require.Eventually(t, func() bool {
		return gw.inactiveCount("lobby") == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, gw.inactiveCount("lobby"))
}

func TestDisconnect_Idempotent(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	alice, bob := &fakeConn{}, &fakeConn{}
	o.Register("a", alice)
	o.Register("b", bob)
	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "lobby", "Bob"))

	o.Disconnect("b")
	o.Disconnect("b")

	require.Equal(t, 1, bob.closedCount())
	require.False(t, o.Registry().Contains("lobby", "b"))

	// Alice got exactly one user-left.
	require.Equal(t, []string{EventRoomUsers, EventUserJoined, EventUserLeft}, alice.eventTypes())
}

func TestRelaySignal_TaggedDelivery(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	alice, bob := &fakeConn{}, &fakeConn{}
	o.Register("a", alice)
	o.Register("b", bob)
	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "lobby", "Bob"))

	payload := json.RawMessage(`{"sdp":"v=0"}`)
	o.RelaySignal("a", "b", EventOffer, payload)

	var ev SignalEvent
	require.NoError(t, json.Unmarshal(bob.lastFrame(), &ev))
	require.Equal(t, EventOffer, ev.Type)
	require.Equal(t, domain.ConnID("a"), ev.SenderConnectionID)
	require.Equal(t, "Alice", ev.SenderDisplayName)
	require.JSONEq(t, string(payload), string(ev.Payload))
}

func TestRelaySignal_DeadTargetSilentDrop(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	alice := &fakeConn{}
	o.Register("a", alice)
	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))

	before := len(alice.eventTypes())
	o.RelaySignal("a", "gone", EventAnswer, json.RawMessage(`{}`))
	require.Len(t, alice.eventTypes(), before)
}

func TestScreenShare_BroadcastExcludesSender(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	alice, bob := &fakeConn{}, &fakeConn{}
	o.Register("a", alice)
	o.Register("b", bob)
	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "lobby", "Bob"))

	aliceBefore := len(alice.eventTypes())
	o.ScreenShare("a", true)
	o.ScreenShare("a", false)

	types := bob.eventTypes()
	require.Equal(t, EventScreenShareStarted, types[len(types)-2])
	require.Equal(t, EventScreenShareStopped, types[len(types)-1])
	require.Len(t, alice.eventTypes(), aliceBefore)
}

func TestScreenShare_RoomlessNoOp(t *testing.T) {
	o := newTestOrchestrator(newFakeGateway())
	conn := &fakeConn{}
	o.Register("a", conn)

	o.ScreenShare("a", true)
	require.Empty(t, conn.eventTypes())
}

func TestBackpressure_KicksStuckConnection(t *testing.T) {
	gw := newFakeGateway("lobby")
	o := newTestOrchestrator(gw)

	stuck := &fakeConn{failSend: true}
	bob := &fakeConn{}
	o.Register("a", stuck)
	o.Register("b", bob)

	require.NoError(t, o.Join(context.Background(), "a", "lobby", "Alice"))
	require.NoError(t, o.Join(context.Background(), "b", "lobby", "Bob"))

	// Bob's arrival could not be delivered to the stuck connection, so the
	// policy kicks it.
	require.Eventually(t, func() bool {
		return stuck.closedCount() == 1 && !o.Registry().Contains("lobby", "a")
	}, time.Second, 10*time.Millisecond)
}
