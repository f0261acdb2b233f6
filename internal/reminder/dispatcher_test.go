package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/notify"
	"github.com/roomdesk/roomdesk/internal/outbox"
)

type fakeReminderStore struct {
	due     []model.Reminder
	sent    map[string][2]string
	failed  map[string]string
	entered chan struct{}
	release chan struct{}
}

func newFakeReminderStore(due ...model.Reminder) *fakeReminderStore {
	return &fakeReminderStore{
		due:    due,
		sent:   map[string][2]string{},
		failed: map[string]string{},
	}
}

func (f *fakeReminderStore) FetchDue(_ context.Context, _ time.Time, _ int) ([]model.Reminder, error) {
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
		<-f.release
	}
	return f.due, nil
}

func (f *fakeReminderStore) MarkSent(_ context.Context, id string, _ time.Time, emailID, smsID string) error {
	f.sent[id] = [2]string{emailID, smsID}
	return nil
}

func (f *fakeReminderStore) MarkFailed(_ context.Context, id string, _ time.Time, lastError string) error {
	f.failed[id] = lastError
	return nil
}

type fakeBookingStore struct {
	bookings map[string]model.Booking
}

func (f *fakeBookingStore) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

type fakeUserStore struct {
	users map[string]model.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type fakeEmailSender struct {
	sent   []notify.EmailMessage
	failTo string
}

func (f *fakeEmailSender) Send(msg notify.EmailMessage) (string, error) {
	if f.failTo != "" && msg.To == f.failTo {
		return "", errors.New("smtp unreachable")
	}
	f.sent = append(f.sent, msg)
	return "email-msg-1", nil
}

type fakeSMSSender struct {
	sent []string
	err  error
}

func (f *fakeSMSSender) Send(_ context.Context, to string, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return "sms-msg-1", nil
}

func testBooking(id string) model.Booking {
	start := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	return model.Booking{
		ID:       id,
		UserID:   "u-1",
		TeamName: "Platform",
		StartAt:  start,
		EndAt:    start.Add(60 * time.Minute),
		Status:   model.BookingConfirmed,
	}
}

func testUser() model.User {
	return model.User{ID: "u-1", Name: "Amina", Email: "amina@example.com", Phone: "+254700000001"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testReminder(id string, typ model.ReminderType) model.Reminder {
	return model.Reminder{
		ID:          id,
		UserID:      "u-1",
		BookingID:   "bk-1",
		Type:        typ,
		ScheduledAt: time.Date(2026, 2, 10, 13, 40, 0, 0, time.UTC),
		Status:      model.ReminderPending,
	}
}

func TestDispatcher_SendsBothChannels(t *testing.T) {
	store := newFakeReminderStore(testReminder("r-1", model.ReminderStarts20))
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": testBooking("bk-1")}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": testUser()}}
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	d := NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{})
	if n := d.Tick(context.Background()); n != 1 {
		t.Fatalf("expected 1 processed, got %d", n)
	}

	ids, ok := store.sent["r-1"]
	if !ok {
		t.Fatalf("reminder not marked sent; failed=%v", store.failed)
	}
	if ids[0] != "email-msg-1" || ids[1] != "sms-msg-1" {
		t.Fatalf("message ids not recorded: %v", ids)
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("expected one email and one sms, got %d and %d", len(email.sent), len(sms.sent))
	}
}

func TestDispatcher_JoinNowSMSBehindFlag(t *testing.T) {
	booking := testBooking("bk-1")
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": booking}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": testUser()}}

	// Flag off: email only.
	store := newFakeReminderStore(testReminder("r-1", model.ReminderJoinNow))
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	d := NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{})
	d.Tick(context.Background())
	if len(sms.sent) != 0 {
		t.Fatalf("JOIN_NOW sent sms with flag off")
	}
	if len(email.sent) != 1 {
		t.Fatalf("JOIN_NOW did not send email")
	}

	// Flag on: both.
	store = newFakeReminderStore(testReminder("r-2", model.ReminderJoinNow))
	email = &fakeEmailSender{}
	sms = &fakeSMSSender{}
	d = NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{Flags: ChannelFlags{JoinNowSMS: true}})
	d.Tick(context.Background())
	if len(sms.sent) != 1 || len(email.sent) != 1 {
		t.Fatalf("JOIN_NOW with flag on: email=%d sms=%d", len(email.sent), len(sms.sent))
	}
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	broken := testUser()
	broken.ID = "u-2"
	broken.Email = "down@example.com"
	broken.Phone = "" // email is the only channel, and it will fail

	first := testReminder("r-1", model.ReminderStarts20)
	first.UserID = "u-2"
	second := testReminder("r-2", model.ReminderStarts20)

	store := newFakeReminderStore(first, second)
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": testBooking("bk-1")}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": testUser(), "u-2": broken}}
	email := &fakeEmailSender{failTo: "down@example.com"}
	sms := &fakeSMSSender{}

	d := NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{})
	if n := d.Tick(context.Background()); n != 2 {
		t.Fatalf("expected 2 processed, got %d", n)
	}

	reason, ok := store.failed["r-1"]
	if !ok {
		t.Fatal("first reminder should have failed")
	}
	if !strings.HasPrefix(reason, "email:") {
		t.Fatalf("failure reason should name the channel, got %q", reason)
	}
	if _, ok := store.sent["r-2"]; !ok {
		t.Fatal("second reminder should still have been sent")
	}
}

func TestDispatcher_MissingBookingStillDelivers(t *testing.T) {
	store := newFakeReminderStore(testReminder("r-1", model.ReminderStarts20))
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": testUser()}}
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	d := NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{})
	d.Tick(context.Background())

	if len(store.failed) != 0 {
		t.Fatalf("missing booking must be tolerated, got failed=%v", store.failed)
	}
	if _, ok := store.sent["r-1"]; !ok {
		t.Fatal("reminder should be marked sent")
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("user was reachable, expected delivery on both channels: email=%d sms=%d", len(email.sent), len(sms.sent))
	}
}

func TestDispatcher_MissingUserMarkedSent(t *testing.T) {
	store := newFakeReminderStore(testReminder("r-1", model.ReminderStarts20))
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": testBooking("bk-1")}}
	users := &fakeUserStore{users: map[string]model.User{}}
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	d := NewDispatcher(testLogger(), store, bookings, users, email, sms, nil, DispatcherConfig{})
	d.Tick(context.Background())

	if len(email.sent) != 0 || len(sms.sent) != 0 {
		t.Fatalf("no channels were addressable, nothing should go out: email=%d sms=%d", len(email.sent), len(sms.sent))
	}
	if ids, ok := store.sent["r-1"]; !ok || ids[0] != "" || ids[1] != "" {
		t.Fatalf("zero attempted channels still counts as sent, got sent=%v failed=%v", store.sent, store.failed)
	}
}

func TestDispatcher_NoContactDetailsMarkedSent(t *testing.T) {
	user := testUser()
	user.Email = ""
	user.Phone = ""

	store := newFakeReminderStore(testReminder("r-1", model.ReminderStarts20))
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": testBooking("bk-1")}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": user}}

	d := NewDispatcher(testLogger(), store, bookings, users, &fakeEmailSender{}, &fakeSMSSender{}, nil, DispatcherConfig{})
	d.Tick(context.Background())

	if _, ok := store.sent["r-1"]; !ok {
		t.Fatalf("contactless user should not fail the reminder, got failed=%v", store.failed)
	}
}

func TestDispatcher_OverlappingTickSkipped(t *testing.T) {
	store := newFakeReminderStore()
	store.entered = make(chan struct{})
	store.release = make(chan struct{})

	d := NewDispatcher(testLogger(), store, &fakeBookingStore{}, &fakeUserStore{}, &fakeEmailSender{}, &fakeSMSSender{}, nil, DispatcherConfig{})

	entered := store.entered
	done := make(chan int)
	go func() { done <- d.Tick(context.Background()) }()
	<-entered

	if n := d.Tick(context.Background()); n != -1 {
		t.Fatalf("overlapping tick should be skipped, got %d", n)
	}

	close(store.release)
	if n := <-done; n != 0 {
		t.Fatalf("first tick should finish empty, got %d", n)
	}

	// With the first tick finished the guard is released again.
	if n := d.Tick(context.Background()); n != 0 {
		t.Fatalf("tick after release should run, got %d", n)
	}
}

func TestDispatcher_EmitsOutboxEvents(t *testing.T) {
	store := newFakeReminderStore(testReminder("r-1", model.ReminderStarts20))
	bookings := &fakeBookingStore{bookings: map[string]model.Booking{"bk-1": testBooking("bk-1")}}
	users := &fakeUserStore{users: map[string]model.User{"u-1": testUser()}}

	var events []outbox.Event
	publish := func(_ context.Context, evt outbox.Event) error {
		events = append(events, evt)
		return nil
	}

	d := NewDispatcher(testLogger(), store, bookings, users, &fakeEmailSender{}, &fakeSMSSender{}, publish, DispatcherConfig{})
	d.Tick(context.Background())

	if len(events) != 1 || events[0].EventType != outbox.EventReminderSent {
		t.Fatalf("expected one reminder.sent event, got %+v", events)
	}
}
