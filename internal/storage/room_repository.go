package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/libs/db"
)

type RoomRepository struct {
	pool *db.Pool
}

func NewRoomRepository(pool *db.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, name, capacity, location, notes, is_active, created_at, updated_at`

func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rooms (id, name, capacity, location, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, room.ID, room.Name, room.Capacity, room.Location, room.Notes, room.IsActive)
	return err
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (model.Room, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE id = $1
	`, id)
	return scanRoom(row)
}

func (r *RoomRepository) List(ctx context.Context, activeOnly bool) ([]model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name ASC`
	if activeOnly {
		query = `SELECT ` + roomColumns + ` FROM rooms WHERE is_active ORDER BY name ASC`
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rooms
		SET name = $2,
			capacity = $3,
			location = $4,
			notes = $5,
			is_active = $6,
			updated_at = now()
		WHERE id = $1
	`, room.ID, room.Name, room.Capacity, room.Location, room.Notes, room.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Deactivate retires a room without touching bookings that reference it.
func (r *RoomRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rooms
		SET is_active = FALSE, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRoom(row pgx.Row) (model.Room, error) {
	var room model.Room
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&room.Notes,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return model.Room{}, err
	}
	return room, nil
}
