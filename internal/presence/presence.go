// Package presence mirrors room occupancy into Redis so other services
// can observe membership changes. Everything here is best-effort: the
// in-memory registry stays authoritative and callers only log failures.
package presence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/avoronov/signalhub/internal/domain"
)

const channel = "rooms"

type notice struct {
	RoomID    domain.RoomID `json:"roomId"`
	Occupancy int           `json:"occupancy"`
}

type Mirror struct {
	rdb *redis.Client
}

// New connects to redis and verifies connectivity.
func New(ctx context.Context, addr string, db int) (*Mirror, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Mirror{rdb: rdb}, nil
}

func (m *Mirror) Close() { _ = m.rdb.Close() }

// SetOccupancy writes the occupancy key and publishes a change notice.
func (m *Mirror) SetOccupancy(ctx context.Context, id domain.RoomID, count int) error {
	if err := m.rdb.Set(ctx, occupancyKey(id), count, 0).Err(); err != nil {
		return err
	}
	return m.publish(ctx, id, count)
}

// Clear drops the occupancy key when a room goes inactive.
func (m *Mirror) Clear(ctx context.Context, id domain.RoomID) error {
	if err := m.rdb.Del(ctx, occupancyKey(id)).Err(); err != nil {
		return err
	}
	return m.publish(ctx, id, 0)
}

func (m *Mirror) publish(ctx context.Context, id domain.RoomID, count int) error {
	raw, _ := json.Marshal(notice{RoomID: id, Occupancy: count})
	return m.rdb.Publish(ctx, channel, raw).Err()
}

func occupancyKey(id domain.RoomID) string {
	return fmt.Sprintf("room:%s:occupancy", id)
}
