// Package store persists room metadata in Postgres. It backs the room
// existence gateway consumed by the lifecycle manager and the REST room
// CRUD; the live membership set never lives here.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/avoronov/signalhub/internal/domain"
)

var (
	ErrNotFound    = errors.New("room not found")
	ErrNotOwner    = errors.New("not the room owner")
	ErrBadPassword = errors.New("wrong password")
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to postgres and returns a pool wrapper.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

const roomColumns = `id, name, password_hash, owner_id, occupancy, active, created_at, updated_at`

func scanRoom(row pgx.Row) (domain.Room, error) {
	var r domain.Room
	err := row.Scan(&r.ID, &r.Name, &r.PasswordHash, &r.OwnerID, &r.Occupancy, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Room{}, ErrNotFound
	}
	return r, err
}

// CreateRoom inserts a new active room owned by ownerID. An empty
// password leaves the room open.
func (p *Postgres) CreateRoom(ctx context.Context, name, password, ownerID string) (domain.Room, error) {
	var hash string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Room{}, err
		}
		hash = string(h)
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO rooms (id, name, password_hash, owner_id, occupancy, active)
		VALUES ($1, $2, $3, $4, 0, TRUE)
		RETURNING `+roomColumns,
		uuid.NewString(), name, hash, ownerID)
	return scanRoom(row)
}

// GetRoom fetches a room by id.
func (p *Postgres) GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, string(id))
	return scanRoom(row)
}

// ListRooms returns active rooms ordered by last update.
func (p *Postgres) ListRooms(ctx context.Context, limit, offset int) ([]domain.Room, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE active
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRoom removes a room; only the owner may do so.
func (p *Postgres) DeleteRoom(ctx context.Context, id domain.RoomID, ownerID string) error {
	r, err := p.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if r.OwnerID != ownerID {
		return ErrNotOwner
	}
	_, err = p.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, string(id))
	return err
}

// VerifyPassword checks a join password against the stored hash. Open
// rooms accept anything.
func (p *Postgres) VerifyPassword(ctx context.Context, id domain.RoomID, password string) error {
	r, err := p.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if !r.Protected() {
		return nil
	}
	if bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)) != nil {
		return ErrBadPassword
	}
	return nil
}

// Exists reports whether the room is present and active. This is the
// boolean oracle the lifecycle manager queries at join time.
func (p *Postgres) Exists(ctx context.Context, id domain.RoomID) (bool, error) {
	var active bool
	err := p.pool.QueryRow(ctx, `SELECT active FROM rooms WHERE id = $1`, string(id)).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// SetOccupancy mirrors the live occupancy count for external visibility.
func (p *Postgres) SetOccupancy(ctx context.Context, id domain.RoomID, count int) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE rooms SET occupancy = $2, updated_at = NOW() WHERE id = $1
	`, string(id), count)
	return err
}

// MarkInactive flags a room whose last occupant left.
func (p *Postgres) MarkInactive(ctx context.Context, id domain.RoomID) error {
	ct, err := p.pool.Exec(ctx, `
		UPDATE rooms SET active = FALSE, occupancy = 0, updated_at = NOW() WHERE id = $1
	`, string(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	log.Info().Str("module", "store").Str("room", string(id)).Msg("room marked inactive")
	return nil
}
