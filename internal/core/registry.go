package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avoronov/signalhub/internal/domain"
)

// roomEntry keeps insertion order so rosters come out deterministic.
type roomEntry struct {
	order  []domain.ConnID
	byConn map[domain.ConnID]domain.Participant
}

// Registry is the authoritative in-memory mapping from room to the set of
// connected participants. A room key exists iff its set is non-empty; the
// entry is dropped inside the same Remove that empties it. Each operation
// is atomic; callers needing multi-step atomicity (join, switch) hold the
// per-room lock in the lifecycle manager.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*roomEntry)}
}

// Add inserts the participant, creating the room set if absent. Re-adding
// the same connection overwrites its record in place.
func (r *Registry) Add(roomID domain.RoomID, p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[roomID]
	if !ok {
		e = &roomEntry{byConn: make(map[domain.ConnID]domain.Participant)}
		r.rooms[roomID] = e
	}
	if _, exists := e.byConn[p.ConnID]; !exists {
		e.order = append(e.order, p.ConnID)
	}
	e.byConn[p.ConnID] = p
	log.Debug().Str("module", "core.registry").Str("room", string(roomID)).Str("conn", string(p.ConnID)).Msg("participant added")
}

// Remove deletes the participant if present and reports the post-removal
// occupancy. When the set empties, the room entry is removed in the same
// operation.
func (r *Registry) Remove(roomID domain.RoomID, id domain.ConnID) (remaining int, removed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return 0, false
	}
	if _, ok := e.byConn[id]; !ok {
		return len(e.byConn), false
	}
	delete(e.byConn, id)
	for i, cid := range e.order {
		if cid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if len(e.byConn) == 0 {
		delete(r.rooms, roomID)
	}
	log.Debug().Str("module", "core.registry").Str("room", string(roomID)).Str("conn", string(id)).Int("remaining", len(e.byConn)).Msg("participant removed")
	return len(e.byConn), true
}

// Participants returns a snapshot copy in insertion order; never a live
// view, so iteration during fan-out never observes concurrent mutation.
func (r *Registry) Participants(roomID domain.RoomID) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.Participant, 0, len(e.order))
	for _, cid := range e.order {
		out = append(out, e.byConn[cid])
	}
	return out
}

// Occupancy reports the participant count, zero if the room is absent.
func (r *Registry) Occupancy(roomID domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(e.byConn)
}

// Contains reports whether the connection is currently in the room.
func (r *Registry) Contains(roomID domain.RoomID, id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = e.byConn[id]
	return ok
}

// RoomCount reports how many rooms currently have members.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
