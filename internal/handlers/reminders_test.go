package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/libs/auth"
)

type fakeReminderLister struct {
	reminders   []model.Reminder
	gotUserID   string
	gotUpcoming bool
	gotLimit    int
}

func (f *fakeReminderLister) ListForUser(_ context.Context, userID string, upcomingOnly bool, _ time.Time, limit int) ([]model.Reminder, error) {
	f.gotUserID = userID
	f.gotUpcoming = upcomingOnly
	f.gotLimit = limit
	return f.reminders, nil
}

func withTestClaims(r *http.Request, sub string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), claimsKey{}, &auth.Claims{Sub: sub, Role: "MEMBER"}))
}

func TestRemindersMine(t *testing.T) {
	scheduled := time.Date(2026, 3, 2, 9, 40, 0, 0, time.UTC)
	lister := &fakeReminderLister{reminders: []model.Reminder{{
		ID:          "r-1",
		UserID:      "user-1",
		BookingID:   "bk-1",
		Type:        model.ReminderStarts20,
		ScheduledAt: scheduled,
		Status:      model.ReminderPending,
	}}}
	h := NewRemindersHandler(lister, slog.New(slog.DiscardHandler))

	req := withTestClaims(httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/reminders/mine", nil), "user-1")
	rw := httptest.NewRecorder()
	h.Mine(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d", rw.Code)
	}
	if lister.gotUserID != "user-1" {
		t.Fatalf("queried user = %q", lister.gotUserID)
	}
	if lister.gotUpcoming {
		t.Fatal("upcoming filter should be off without the query param")
	}

	var items []reminderItem
	if err := json.Unmarshal(rw.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 || items[0].ID != "r-1" || items[0].Type != "STARTS_20" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].ScheduledAt != scheduled.Format(time.RFC3339) {
		t.Fatalf("scheduledAt = %q", items[0].ScheduledAt)
	}
}

func TestRemindersMine_UpcomingFilter(t *testing.T) {
	lister := &fakeReminderLister{}
	h := NewRemindersHandler(lister, slog.New(slog.DiscardHandler))

	req := withTestClaims(httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/reminders/mine?upcoming=true", nil), "user-1")
	rw := httptest.NewRecorder()
	h.Mine(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d", rw.Code)
	}
	if !lister.gotUpcoming {
		t.Fatal("upcoming=true should narrow to pending future reminders")
	}
}

func TestRemindersMine_RequiresClaims(t *testing.T) {
	h := NewRemindersHandler(&fakeReminderLister{}, slog.New(slog.DiscardHandler))

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/reminders/mine", nil)
	rw := httptest.NewRecorder()
	h.Mine(rw, req)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rw.Code)
	}
}
