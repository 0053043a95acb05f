package core

import (
	"context"

	"github.com/avoronov/signalhub/internal/domain"
)

// RoomGateway is the external collaborator that owns persisted room
// records. Exists is the only call the lifecycle manager blocks on (with
// a bounded context); the occupancy writes are a best-effort mirror and
// never gate registry mutations.
type RoomGateway interface {
	Exists(ctx context.Context, id domain.RoomID) (bool, error)
	ReportOccupancy(ctx context.Context, id domain.RoomID, count int) error
	MarkInactive(ctx context.Context, id domain.RoomID) error
}
