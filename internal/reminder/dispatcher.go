package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/notify"
	"github.com/roomdesk/roomdesk/internal/outbox"
	"github.com/roomdesk/roomdesk/internal/storage"
)

type ReminderStore interface {
	FetchDue(ctx context.Context, now time.Time, limit int) ([]model.Reminder, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time, emailMessageID, smsMessageID string) error
	MarkFailed(ctx context.Context, id string, failedAt time.Time, lastError string) error
}

type BookingStore interface {
	GetByID(ctx context.Context, id string) (model.Booking, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// PublishFunc hands a domain event to the outbox. Optional; a nil func
// means outcomes are only logged.
type PublishFunc func(ctx context.Context, evt outbox.Event) error

type DispatcherConfig struct {
	BatchSize int
	Flags     ChannelFlags
	Location  *time.Location
	Now       func() time.Time
}

// Dispatcher delivers due reminders. Ticks never overlap: if a tick fires
// while the previous one is still working, the new tick is skipped, and the
// backlog is picked up by whichever tick runs next.
type Dispatcher struct {
	logger    *slog.Logger
	reminders ReminderStore
	bookings  BookingStore
	users     UserStore
	email     notify.EmailSender
	sms       notify.SMSSender
	publish   PublishFunc
	flags     ChannelFlags
	loc       *time.Location
	batchSize int
	now       func() time.Time
	running   atomic.Bool
}

func NewDispatcher(logger *slog.Logger, reminders ReminderStore, bookings BookingStore, users UserStore, email notify.EmailSender, sms notify.SMSSender, publish PublishFunc, cfg DispatcherConfig) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		logger:    logger,
		reminders: reminders,
		bookings:  bookings,
		users:     users,
		email:     email,
		sms:       sms,
		publish:   publish,
		flags:     cfg.Flags,
		loc:       cfg.Location,
		batchSize: cfg.BatchSize,
		now:       cfg.Now,
	}
}

// Start registers the tick on the given cron schedule and runs it until
// the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { d.Tick(ctx) }); err != nil {
		return err
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// Tick processes one batch of due reminders sequentially. Returns the
// number of reminders handled, or -1 if the tick was skipped because a
// previous one is still running.
func (d *Dispatcher) Tick(ctx context.Context) int {
	if !d.running.CompareAndSwap(false, true) {
		d.logger.Warn("reminder tick skipped, previous tick still running")
		return -1
	}
	defer d.running.Store(false)

	start := d.now()
	due, err := d.reminders.FetchDue(ctx, start, d.batchSize)
	if err != nil {
		d.logger.Error("fetching due reminders failed", "err", err)
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	for _, rem := range due {
		if err := d.process(ctx, rem); err != nil {
			// One bad reminder must not sink the rest of the batch.
			d.logger.Error("reminder processing failed", "reminder_id", rem.ID, "type", rem.Type, "err", err)
		}
	}

	d.logger.Info("reminder tick done", "count", len(due), "took", d.now().Sub(start).String())
	return len(due)
}

func (d *Dispatcher) process(ctx context.Context, rem model.Reminder) error {
	// A missing booking or user is tolerated: deliver with whatever is
	// still resolvable rather than dropping the reminder on the floor.
	var booking model.Booking
	switch b, err := d.bookings.GetByID(ctx, rem.BookingID); {
	case err == nil:
		if b.Status != model.BookingConfirmed {
			return d.fail(ctx, rem, "booking no longer confirmed")
		}
		booking = b
	case storage.IsNotFound(err):
		d.logger.Warn("reminder booking missing", "reminder_id", rem.ID, "booking_id", rem.BookingID)
	default:
		return err
	}

	var user model.User
	switch u, err := d.users.GetByID(ctx, rem.UserID); {
	case err == nil:
		user = u
	case storage.IsNotFound(err):
		d.logger.Warn("reminder user missing", "reminder_id", rem.ID, "user_id", rem.UserID)
	default:
		return err
	}

	ch := ChannelsFor(rem.Type, d.flags)

	var emailMessageID, smsMessageID string
	var errs []string

	if ch.Email && user.Email != "" {
		id, err := d.email.Send(notify.EmailMessage{
			To:      user.Email,
			Subject: notify.ReminderSubject(rem.Type, booking),
			Text:    notify.ReminderText(rem.Type, booking, d.loc),
		})
		if err != nil {
			errs = append(errs, "email: "+err.Error())
		} else {
			emailMessageID = id
		}
	}

	if ch.SMS && user.Phone != "" {
		id, err := d.sms.Send(ctx, user.Phone, notify.ReminderSMS(rem.Type, booking))
		if err != nil {
			errs = append(errs, "sms: "+err.Error())
		} else {
			smsMessageID = id
		}
	}

	if len(errs) > 0 {
		return d.fail(ctx, rem, strings.Join(errs, "; "))
	}

	// Zero attempted channels still counts as sent: the user simply has
	// nowhere to receive this one, and the reminder must not stay due.
	sentAt := d.now()
	if err := d.reminders.MarkSent(ctx, rem.ID, sentAt, emailMessageID, smsMessageID); err != nil {
		return err
	}
	d.logger.Info("reminder sent", "reminder_id", rem.ID, "type", rem.Type, "booking_id", rem.BookingID)
	d.emit(ctx, outbox.EventReminderSent, rem, "")
	return nil
}

// fail is terminal: a FAILED reminder is never retried.
func (d *Dispatcher) fail(ctx context.Context, rem model.Reminder, reason string) error {
	if err := d.reminders.MarkFailed(ctx, rem.ID, d.now(), reason); err != nil {
		return err
	}
	d.logger.Warn("reminder failed", "reminder_id", rem.ID, "type", rem.Type, "booking_id", rem.BookingID, "reason", reason)
	d.emit(ctx, outbox.EventReminderFailed, rem, reason)
	return nil
}

func (d *Dispatcher) emit(ctx context.Context, eventType string, rem model.Reminder, reason string) {
	if d.publish == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"reminder_id":  rem.ID,
		"booking_id":   rem.BookingID,
		"user_id":      rem.UserID,
		"type":         rem.Type,
		"scheduled_at": rem.ScheduledAt.UTC().Format(time.RFC3339),
		"reason":       reason,
	})
	if err != nil {
		d.logger.Error("reminder event payload failed", "err", err)
		return
	}
	if err := d.publish(ctx, outbox.Event{
		AggregateType: outbox.AggregateReminder,
		AggregateID:   rem.ID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		d.logger.Error("reminder event publish failed", "err", err)
	}
}
