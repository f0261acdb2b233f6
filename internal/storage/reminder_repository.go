package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/libs/db"
)

type ReminderRepository struct {
	pool *db.Pool
}

func NewReminderRepository(pool *db.Pool) *ReminderRepository {
	return &ReminderRepository{pool: pool}
}

const reminderColumns = `id, user_id, booking_id, type, scheduled_at, status,
	sent_at, failed_at, last_error, email_message_id, sms_message_id, created_at`

// InsertBatch writes all reminders inside the caller's transaction so a
// booking either gets its full reminder set or none of it.
func (r *ReminderRepository) InsertBatch(ctx context.Context, tx pgx.Tx, reminders []model.Reminder) error {
	for _, rem := range reminders {
		_, err := tx.Exec(ctx, `
			INSERT INTO reminders (id, user_id, booking_id, type, scheduled_at, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rem.ID, rem.UserID, rem.BookingID, rem.Type, rem.ScheduledAt, rem.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

// FetchDue returns pending reminders whose scheduled time has passed,
// oldest first. Past-dated reminders simply come back on the next call.
func (r *ReminderRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE status = 'PENDING' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, emailMessageID, smsMessageID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET status = 'SENT',
			sent_at = $2,
			email_message_id = $3,
			sms_message_id = $4
		WHERE id = $1 AND status = 'PENDING'
	`, id, sentAt, emailMessageID, smsMessageID)
	return err
}

// MarkFailed is terminal; failed reminders are never retried.
func (r *ReminderRepository) MarkFailed(ctx context.Context, id string, failedAt time.Time, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE reminders
		SET status = 'FAILED',
			failed_at = $2,
			last_error = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, failedAt, lastError)
	return err
}

// CancelForBooking flips the booking's pending reminders to CANCELLED.
// Reminders already sent, failed, or cancelled are left untouched, which
// makes repeat cancellations a no-op.
func (r *ReminderRepository) CancelForBooking(ctx context.Context, tx pgx.Tx, bookingID string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE reminders
		SET status = 'CANCELLED'
		WHERE booking_id = $1 AND status = 'PENDING'
	`, bookingID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ReminderRepository) ListForBooking(ctx context.Context, bookingID string) ([]model.Reminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE booking_id = $1
		ORDER BY scheduled_at ASC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

// ListForUser returns one user's reminders oldest first. With upcomingOnly
// set, only pending reminders whose scheduled time is still ahead of now
// are returned.
func (r *ReminderRepository) ListForUser(ctx context.Context, userID string, upcomingOnly bool, now time.Time, limit int) ([]model.Reminder, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var (
		rows pgx.Rows
		err  error
	)
	if upcomingOnly {
		rows, err = r.pool.Query(ctx, `
			SELECT `+reminderColumns+`
			FROM reminders
			WHERE user_id = $1 AND status = 'PENDING' AND scheduled_at >= $2
			ORDER BY scheduled_at ASC
			LIMIT $3
		`, userID, now, limit)
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT `+reminderColumns+`
			FROM reminders
			WHERE user_id = $1
			ORDER BY scheduled_at ASC
			LIMIT $2
		`, userID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *ReminderRepository) ListRecent(ctx context.Context, limit int) ([]model.Reminder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		ORDER BY scheduled_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func scanReminders(rows pgx.Rows) ([]model.Reminder, error) {
	var out []model.Reminder
	for rows.Next() {
		var rem model.Reminder
		var typ, status string
		if err := rows.Scan(
			&rem.ID,
			&rem.UserID,
			&rem.BookingID,
			&typ,
			&rem.ScheduledAt,
			&status,
			&rem.SentAt,
			&rem.FailedAt,
			&rem.LastError,
			&rem.EmailMessageID,
			&rem.SMSMessageID,
			&rem.CreatedAt,
		); err != nil {
			return nil, err
		}
		rem.Type = model.ReminderType(typ)
		rem.Status = model.ReminderStatus(status)
		out = append(out, rem)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
