package domain

import "time"

type RoomID string

// Room is the persisted metadata record for a room. The live membership
// set is owned by the registry, not by this struct; Occupancy here is the
// best-effort mirror reported by the lifecycle manager.
type Room struct {
	ID           RoomID    `json:"id"`
	Name         string    `json:"name"`
	OwnerID      string    `json:"ownerId"`
	PasswordHash string    `json:"-"`
	Occupancy    int       `json:"occupancy"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r Room) Protected() bool { return r.PasswordHash != "" }
