package app

import (
	"context"
	"errors"

	"github.com/avoronov/signalhub/internal/domain"
	"github.com/avoronov/signalhub/internal/presence"
	"github.com/avoronov/signalhub/internal/store"
)

// StoreGateway implements core.RoomGateway over the Postgres room store
// with an optional Redis occupancy mirror. Exists hits the store only;
// the write paths fan out to both and report a joined error for logging.
type StoreGateway struct {
	Store  *store.Postgres
	Mirror *presence.Mirror // nil disables the redis mirror
}

func (g *StoreGateway) Exists(ctx context.Context, id domain.RoomID) (bool, error) {
	return g.Store.Exists(ctx, id)
}

func (g *StoreGateway) ReportOccupancy(ctx context.Context, id domain.RoomID, count int) error {
	err := g.Store.SetOccupancy(ctx, id, count)
	if g.Mirror != nil {
		err = errors.Join(err, g.Mirror.SetOccupancy(ctx, id, count))
	}
	return err
}

func (g *StoreGateway) MarkInactive(ctx context.Context, id domain.RoomID) error {
	err := g.Store.MarkInactive(ctx, id)
	if g.Mirror != nil {
		err = errors.Join(err, g.Mirror.Clear(ctx, id))
	}
	return err
}
