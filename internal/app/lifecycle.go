package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/core"
	"github.com/avoronov/signalhub/internal/domain"
	"github.com/avoronov/signalhub/internal/metrics"
)

var (
	// ErrRoomNotFound covers both "room absent/inactive" and "gateway
	// lookup failed": the protocol does not distinguish them, both deny
	// the join.
	ErrRoomNotFound = errors.New("room not found")

	ErrUnknownConnection = errors.New("unknown connection")
)

// Orchestrator owns one state machine per live connection and drives all
// join/leave/disconnect transitions. The registry mutation is always the
// synchronous, authoritative step; gateway writes are issued afterwards
// and never gate it.
type Orchestrator struct {
	registry *core.Registry
	gateway  core.RoomGateway
	relay    *Relay
	peers    *peerTable
	locks    *roomLocks
	policy   Policy
	timeout  time.Duration
}

func NewOrchestrator(gateway core.RoomGateway, policy Policy, gatewayTimeout time.Duration) *Orchestrator {
	peers := newPeerTable()
	registry := core.NewRegistry()
	return &Orchestrator{
		registry: registry,
		gateway:  gateway,
		relay:    NewRelay(peers, registry),
		peers:    peers,
		locks:    newRoomLocks(),
		policy:   policy,
		timeout:  gatewayTimeout,
	}
}

func (o *Orchestrator) Registry() *core.Registry { return o.registry }

// Register creates per-connection state for a freshly accepted transport.
func (o *Orchestrator) Register(id domain.ConnID, conn core.SignalConnection) {
	o.peers.add(id, conn)
	metrics.ConnectionsActive.Inc()
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Msg("connection registered")
}

// Join moves the connection into roomID. The gateway is consulted first;
// a failed or negative lookup denies the join with no state change. If the
// connection is already in another room, the leave sub-protocol runs to
// completion (peer notification included) before the new membership is
// recorded, so the connection is never in two rooms at once.
func (o *Orchestrator) Join(ctx context.Context, id domain.ConnID, roomID domain.RoomID, displayName string) error {
	p, ok := o.peers.get(id)
	if !ok {
		return ErrUnknownConnection
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == phaseDisconnected {
		return ErrUnknownConnection
	}

	lookupCtx, cancel := context.WithTimeout(ctx, o.timeout)
	exists, err := o.gateway.Exists(lookupCtx, roomID)
	cancel()
	if err != nil {
		metrics.GatewayFailuresTotal.WithLabelValues("exists").Inc()
		log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", string(roomID)).Msg("gateway lookup failed, denying join")
		return ErrRoomNotFound
	}
	if !exists {
		return ErrRoomNotFound
	}

	if p.phase == phaseJoined {
		o.leaveLocked(p, id)
	}

	unlock := o.locks.lock(roomID)
	o.registry.Add(roomID, domain.Participant{ConnID: id, DisplayName: displayName})
	p.phase = phaseJoined
	p.roomID = roomID
	p.displayName = displayName

	// Roster snapshot is taken after our own insert and filtered, so the
	// joiner never sees itself.
	all := o.registry.Participants(roomID)
	roster := make([]domain.Participant, 0, len(all)-1)
	for _, q := range all {
		if q.ConnID != id {
			roster = append(roster, q)
		}
	}
	o.relay.SendTo(id, EventRoomUsers, RoomUsersEvent{Type: EventRoomUsers, Participants: roster})
	res := o.relay.Broadcast(roomID, id, EventUserJoined, UserJoinedEvent{
		Type:         EventUserJoined,
		ConnectionID: id,
		DisplayName:  displayName,
	})
	count := o.registry.Occupancy(roomID)
	unlock()

	metrics.JoinsTotal.Inc()
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Str("room", string(roomID)).Str("name", displayName).Int("occupancy", count).Msg("joined room")
	o.mirrorOccupancy(roomID, count)
	o.applyBackpressure(res.dropped)
	return nil
}

// Leave removes the connection from its current room. No-op when the
// connection holds no room.
func (o *Orchestrator) Leave(id domain.ConnID) {
	p, ok := o.peers.get(id)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != phaseJoined {
		return
	}
	o.leaveLocked(p, id)
}

// leaveLocked runs the leave sub-protocol. Caller holds p.mu and p is in
// phaseJoined.
func (o *Orchestrator) leaveLocked(p *peer, id domain.ConnID) {
	roomID := p.roomID
	displayName := p.displayName

	unlock := o.locks.lock(roomID)
	remaining, removed := o.registry.Remove(roomID, id)
	p.phase = phaseConnected
	p.roomID = ""
	p.displayName = ""

	var res broadcastResult
	if removed && remaining > 0 {
		res = o.relay.Broadcast(roomID, id, EventUserLeft, UserLeftEvent{
			Type:         EventUserLeft,
			ConnectionID: id,
			DisplayName:  displayName,
		})
	}
	unlock()

	if !removed {
		return
	}
	metrics.LeavesTotal.Inc()
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Str("room", string(roomID)).Int("remaining", remaining).Msg("left room")
	if remaining == 0 {
		o.mirrorInactive(roomID)
	} else {
		o.mirrorOccupancy(roomID, remaining)
	}
	o.applyBackpressure(res.dropped)
}

// Disconnect is the terminal transition. Safe to invoke more than once;
// duplicate transport-close notifications are absorbed. A disconnect
// racing a join for the same connection is serialized by the peer mutex,
// so a completed join is immediately followed by the pending leave.
func (o *Orchestrator) Disconnect(id domain.ConnID) {
	p, ok := o.peers.get(id)
	if !ok {
		return
	}
	p.mu.Lock()
	if p.phase == phaseDisconnected {
		p.mu.Unlock()
		return
	}
	if p.phase == phaseJoined {
		o.leaveLocked(p, id)
	}
	p.phase = phaseDisconnected
	conn := p.conn
	p.mu.Unlock()

	o.peers.remove(id)
	conn.Close()
	metrics.ConnectionsActive.Dec()
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Msg("disconnected")
}

// RelaySignal forwards an opaque offer/answer/ice-candidate payload to a
// named target connection, tagged with the sender. A dead target is a
// silent drop, not an error.
func (o *Orchestrator) RelaySignal(from, target domain.ConnID, event string, payload json.RawMessage) {
	var name string
	if p, ok := o.peers.get(from); ok {
		p.mu.Lock()
		name = p.displayName
		p.mu.Unlock()
	}
	o.relay.SendTo(target, event, SignalEvent{
		Type:               event,
		Payload:            payload,
		SenderConnectionID: from,
		SenderDisplayName:  name,
	})
}

// ScreenShare broadcasts a screen-share start/stop notice to everyone in
// the sender's room. No-op when the sender holds no room.
func (o *Orchestrator) ScreenShare(from domain.ConnID, started bool) {
	p, ok := o.peers.get(from)
	if !ok {
		return
	}
	p.mu.Lock()
	joined := p.phase == phaseJoined
	roomID := p.roomID
	displayName := p.displayName
	p.mu.Unlock()
	if !joined {
		return
	}

	var res broadcastResult
	if started {
		res = o.relay.Broadcast(roomID, from, EventScreenShareStarted, ScreenShareStartedEvent{
			Type:         EventScreenShareStarted,
			ConnectionID: from,
			DisplayName:  displayName,
		})
	} else {
		res = o.relay.Broadcast(roomID, from, EventScreenShareStopped, ScreenShareStoppedEvent{
			Type:         EventScreenShareStopped,
			ConnectionID: from,
		})
	}
	o.applyBackpressure(res.dropped)
}

func (o *Orchestrator) applyBackpressure(dropped []domain.ConnID) {
	if o.policy == nil {
		return
	}
	for _, id := range dropped {
		if o.policy.OnBackPressure(id) == KickConnection {
			go o.Disconnect(id)
		}
	}
}

func (o *Orchestrator) mirrorOccupancy(roomID domain.RoomID, count int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if err := o.gateway.ReportOccupancy(ctx, roomID, count); err != nil {
			metrics.GatewayFailuresTotal.WithLabelValues("report_occupancy").Inc()
			log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", string(roomID)).Int("occupancy", count).Msg("occupancy report failed")
		}
	}()
}

func (o *Orchestrator) mirrorInactive(roomID domain.RoomID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if err := o.gateway.MarkInactive(ctx, roomID); err != nil {
			metrics.GatewayFailuresTotal.WithLabelValues("mark_inactive").Inc()
			log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", string(roomID)).Msg("mark inactive failed")
		}
	}()
}
