package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/libs/db"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const bookingColumns = `id, user_id, COALESCE(room_id::text, ''), attendee_count, team_name, meeting_title,
	duration_minutes, start_at, end_at, meeting_link, status, external_event_id, created_at`

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	var roomID *string
	if b.RoomID != "" {
		roomID = &b.RoomID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings
			(id, user_id, room_id, attendee_count, team_name, meeting_title,
			 duration_minutes, start_at, end_at, meeting_link, status, external_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.ID, b.UserID, roomID, b.AttendeeCount, b.TeamName, b.MeetingTitle,
		b.DurationMinutes, b.StartAt, b.EndAt, b.MeetingLink, b.Status, b.ExternalEventID)
	return err
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (model.Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

// ListConfirmedBetween returns confirmed bookings whose interval intersects
// [start, end), ordered by start time.
func (r *BookingRepository) ListConfirmedBetween(ctx context.Context, start, end time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'CONFIRMED'
			AND start_at < $2
			AND end_at > $1
		ORDER BY start_at ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY start_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *BookingRepository) ListAll(ctx context.Context, limit int) ([]model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY start_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = 'CANCELLED'
		WHERE id = $1 AND status = 'CONFIRMED'
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the booking row entirely; cascades to its reminders.
func (r *BookingRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanBooking(row pgx.Row) (model.Booking, error) {
	var b model.Booking
	var status string
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.AttendeeCount,
		&b.TeamName,
		&b.MeetingTitle,
		&b.DurationMinutes,
		&b.StartAt,
		&b.EndAt,
		&b.MeetingLink,
		&status,
		&b.ExternalEventID,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	return b, nil
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
