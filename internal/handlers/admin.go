package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/activity"
	"github.com/roomdesk/roomdesk/internal/calendar"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/outbox"
	"github.com/roomdesk/roomdesk/internal/storage"
)

// AdminHandler serves the dashboard views and the destructive booking
// delete. All routes behind it require the admin role.
type AdminHandler struct {
	bookings   *storage.BookingRepository
	reminders  *storage.ReminderRepository
	activity   *activity.Repository
	outboxRepo *outbox.Repository
	calendar   calendar.Client
	logger     *slog.Logger
}

func NewAdminHandler(
	bookings *storage.BookingRepository,
	reminders *storage.ReminderRepository,
	activityRepo *activity.Repository,
	outboxRepo *outbox.Repository,
	cal calendar.Client,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		bookings:   bookings,
		reminders:  reminders,
		activity:   activityRepo,
		outboxRepo: outboxRepo,
		calendar:   cal,
		logger:     logger,
	}
}

func queryLimit(r *http.Request, def int) int {
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return def
}

func (h *AdminHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bookings, err := h.bookings.ListAll(r.Context(), queryLimit(r, 100))
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, bookingToItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}

type reminderItem struct {
	ID             string `json:"id"`
	BookingID      string `json:"bookingId"`
	UserID         string `json:"userId"`
	Type           string `json:"type"`
	ScheduledAt    string `json:"scheduledAt"`
	Status         string `json:"status"`
	SentAt         string `json:"sentAt,omitempty"`
	FailedAt       string `json:"failedAt,omitempty"`
	LastError      string `json:"lastError,omitempty"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
}

func (h *AdminHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		reminders []model.Reminder
		err       error
	)
	if bookingID := strings.TrimSpace(r.URL.Query().Get("bookingId")); bookingID != "" {
		reminders, err = h.reminders.ListForBooking(r.Context(), bookingID)
	} else {
		reminders, err = h.reminders.ListRecent(r.Context(), queryLimit(r, 100))
	}
	if err != nil {
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}

	items := make([]reminderItem, 0, len(reminders))
	for _, rem := range reminders {
		items = append(items, reminderToItem(rem))
	}
	writeJSON(w, http.StatusOK, items)
}

func reminderToItem(rem model.Reminder) reminderItem {
	item := reminderItem{
		ID:             rem.ID,
		BookingID:      rem.BookingID,
		UserID:         rem.UserID,
		Type:           string(rem.Type),
		ScheduledAt:    rem.ScheduledAt.UTC().Format(time.RFC3339),
		Status:         string(rem.Status),
		LastError:      rem.LastError,
		EmailMessageID: rem.EmailMessageID,
		SMSMessageID:   rem.SMSMessageID,
	}
	if rem.SentAt != nil {
		item.SentAt = rem.SentAt.UTC().Format(time.RFC3339)
	}
	if rem.FailedAt != nil {
		item.FailedAt = rem.FailedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.activity.ListRecent(r.Context(), queryLimit(r, 50))
	if err != nil {
		http.Error(w, "failed to list activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteBooking removes a booking outright. Reminders go with it via the
// cascade; the calendar event is removed best-effort afterwards.
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		http.Error(w, "bookingId required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	booking, err := h.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.bookings.Delete(ctx, tx, booking.ID); err != nil {
		http.Error(w, "failed to delete booking", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"booking_id": booking.ID,
		"user_id":    booking.UserID,
		"team_name":  booking.TeamName,
		"start_at":   booking.StartAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: outbox.AggregateBooking,
		AggregateID:   booking.ID,
		EventType:     outbox.EventBookingDeleted,
		Payload:       payload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	if booking.ExternalEventID != "" {
		if err := h.calendar.DeleteEvent(ctx, booking.ExternalEventID); err != nil {
			h.logger.Warn("calendar event delete failed", "event_id", booking.ExternalEventID, "err", err)
		}
	}

	actorID := ""
	if claims, ok := ClaimsFrom(ctx); ok {
		actorID = claims.Sub
	}
	if err := h.activity.Record(ctx, activity.RecordInput{
		Action:      "booking.deleted",
		Description: booking.EventTitle() + " deleted by admin",
		EntityType:  outbox.AggregateBooking,
		EntityID:    booking.ID,
		ActorID:     actorID,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
	}); err != nil {
		h.logger.Warn("delete activity record failed", "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
