package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/model"
)

// ScheduledTime pairs a reminder type with the instant it becomes due.
type ScheduledTime struct {
	Type model.ReminderType
	At   time.Time
}

// Times derives the full reminder set for a booking: twenty minutes before
// the start, at the start, and ten minutes before the end. Always exactly
// three entries, even for short meetings where ENDING_10 lands before
// STARTS_20; ordering is the dispatcher's problem, not the scheduler's.
func Times(startAt, endAt time.Time) []ScheduledTime {
	return []ScheduledTime{
		{Type: model.ReminderStarts20, At: startAt.Add(-20 * time.Minute)},
		{Type: model.ReminderJoinNow, At: startAt},
		{Type: model.ReminderEnding10, At: endAt.Add(-10 * time.Minute)},
	}
}

type reminderWriter interface {
	InsertBatch(ctx context.Context, tx pgx.Tx, reminders []model.Reminder) error
	CancelForBooking(ctx context.Context, tx pgx.Tx, bookingID string) (int64, error)
}

// Scheduler persists reminder rows for bookings. It runs inside the
// caller's transaction so reminders appear and disappear atomically with
// their booking.
type Scheduler struct {
	reminders reminderWriter
}

func NewScheduler(reminders reminderWriter) *Scheduler {
	return &Scheduler{reminders: reminders}
}

// CreateForBooking inserts the three PENDING reminders for a booking.
// Past-dated reminders are stored as-is; the dispatcher picks them up on
// its next pass.
func (s *Scheduler) CreateForBooking(ctx context.Context, tx pgx.Tx, b model.Booking) ([]model.Reminder, error) {
	var reminders []model.Reminder
	for _, st := range Times(b.StartAt, b.EndAt) {
		reminders = append(reminders, model.Reminder{
			ID:          uuid.NewString(),
			UserID:      b.UserID,
			BookingID:   b.ID,
			Type:        st.Type,
			ScheduledAt: st.At,
			Status:      model.ReminderPending,
		})
	}
	if err := s.reminders.InsertBatch(ctx, tx, reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// CancelForBooking cancels whatever is still pending for the booking and
// reports how many rows changed. Safe to call more than once.
func (s *Scheduler) CancelForBooking(ctx context.Context, tx pgx.Tx, bookingID string) (int64, error) {
	return s.reminders.CancelForBooking(ctx, tx, bookingID)
}
