package app

import (
	"sync"

	"github.com/avoronov/signalhub/internal/domain"
)

// roomLocks hands out one mutex per room id so operations touching the
// same room mutually exclude while unrelated rooms proceed concurrently.
// Entries are refcounted and dropped when the last holder releases, so
// the map does not grow with dead room ids.
type roomLocks struct {
	mu    sync.Mutex
	locks map[domain.RoomID]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[domain.RoomID]*roomLock)}
}

// lock acquires the mutex for roomID and returns the release func.
func (l *roomLocks) lock(roomID domain.RoomID) func() {
	l.mu.Lock()
	rl, ok := l.locks[roomID]
	if !ok {
		rl = &roomLock{}
		l.locks[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}
