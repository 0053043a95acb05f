// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxRoomNameLen    = 64
	MaxDisplayNameLen = 36
)

var (
	ErrDisplayNameEmpty   = errors.New("display name empty")
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrRoomNameEmpty      = errors.New("room name empty")
	ErrRoomNameTooLong    = errors.New("room name too long")
)

// ConnID identifies one live connection. Assigned at accept time, stable
// for the connection's life.
type ConnID string

// Participant is the registry's view of a connection inside a room. It is
// a copy of the connection's meta at join time, so fan-out never touches
// the live connection object.
type Participant struct {
	ConnID      ConnID `json:"connectionId"`
	DisplayName string `json:"displayName"`
}

func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrDisplayNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	return nil
}

func ValidateRoomName(name string) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
