package app

import (
	"encoding/json"

	"github.com/avoronov/signalhub/internal/domain"
)

// Outbound wire events. Field names are part of the client protocol.

const (
	EventRoomUsers          = "room-users"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventOffer              = "offer"
	EventAnswer             = "answer"
	EventICECandidate       = "ice-candidate"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"
	EventError              = "error"
)

// RoomUsersEvent carries the roster to a joining connection. The joiner
// itself is never included.
type RoomUsersEvent struct {
	Type         string               `json:"type"`
	Participants []domain.Participant `json:"participants"`
}

type UserJoinedEvent struct {
	Type         string        `json:"type"`
	ConnectionID domain.ConnID `json:"connectionId"`
	DisplayName  string        `json:"displayName"`
}

type UserLeftEvent struct {
	Type         string        `json:"type"`
	ConnectionID domain.ConnID `json:"connectionId"`
	DisplayName  string        `json:"displayName"`
}

// SignalEvent is a directed offer/answer/ice-candidate forwarded verbatim
// and tagged with the sender.
type SignalEvent struct {
	Type               string          `json:"type"`
	Payload            json.RawMessage `json:"payload"`
	SenderConnectionID domain.ConnID   `json:"senderConnectionId"`
	SenderDisplayName  string          `json:"senderDisplayName,omitempty"`
}

type ScreenShareStartedEvent struct {
	Type         string        `json:"type"`
	ConnectionID domain.ConnID `json:"connectionId"`
	DisplayName  string        `json:"displayName"`
}

type ScreenShareStoppedEvent struct {
	Type         string        `json:"type"`
	ConnectionID domain.ConnID `json:"connectionId"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
