package app

import (
	"sync"

	"github.com/avoronov/signalhub/internal/core"
	"github.com/avoronov/signalhub/internal/domain"
)

type phase int

const (
	phaseConnected phase = iota // accepted, no room yet
	phaseJoined                 // member of exactly one room
	phaseDisconnected           // terminal
)

// peer is the lifecycle manager's per-connection state. mu serializes all
// lifecycle transitions for this connection, so a disconnect arriving
// while a join is in flight runs strictly after it.
type peer struct {
	mu sync.Mutex

	conn        core.SignalConnection
	phase       phase
	roomID      domain.RoomID
	displayName string
}

// peerTable maps connection ids to live peers. It owns no room state;
// membership lives in the registry.
type peerTable struct {
	mu    sync.RWMutex
	peers map[domain.ConnID]*peer
}

func newPeerTable() *peerTable {
	return &peerTable{peers: make(map[domain.ConnID]*peer)}
}

func (t *peerTable) add(id domain.ConnID, conn core.SignalConnection) *peer {
	p := &peer{conn: conn, phase: phaseConnected}
	t.mu.Lock()
	t.peers[id] = p
	t.mu.Unlock()
	return p
}

func (t *peerTable) get(id domain.ConnID) (*peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[id]
	return p, ok
}

// signal returns the transport endpoint if the connection is live. This
// is the relay's liveness check for directed delivery.
func (t *peerTable) signal(id domain.ConnID) (core.SignalConnection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[id]
	if !ok {
		return nil, false
	}
	return p.conn, true
}

func (t *peerTable) remove(id domain.ConnID) {
	t.mu.Lock()
	delete(t.peers, id)
	t.mu.Unlock()
}

func (t *peerTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.peers)
}
