package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/roomdesk/roomdesk/internal/activity"
	"github.com/roomdesk/roomdesk/internal/calendar"
	"github.com/roomdesk/roomdesk/internal/config"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/notify"
	"github.com/roomdesk/roomdesk/internal/outbox"
	"github.com/roomdesk/roomdesk/internal/reminder"
	"github.com/roomdesk/roomdesk/internal/schedule"
	"github.com/roomdesk/roomdesk/internal/storage"
)

type BookingsHandler struct {
	bookings   *storage.BookingRepository
	users      *storage.UserRepository
	scheduler  *reminder.Scheduler
	outboxRepo *outbox.Repository
	activity   *activity.Repository
	calendar   calendar.Client
	email      notify.EmailSender
	sms        notify.SMSSender
	cfg        *config.Config
	logger     *slog.Logger
	now        func() time.Time
}

func NewBookingsHandler(
	bookings *storage.BookingRepository,
	users *storage.UserRepository,
	scheduler *reminder.Scheduler,
	outboxRepo *outbox.Repository,
	activityRepo *activity.Repository,
	cal calendar.Client,
	email notify.EmailSender,
	sms notify.SMSSender,
	cfg *config.Config,
	logger *slog.Logger,
) *BookingsHandler {
	return &BookingsHandler{
		bookings:   bookings,
		users:      users,
		scheduler:  scheduler,
		outboxRepo: outboxRepo,
		activity:   activityRepo,
		calendar:   cal,
		email:      email,
		sms:        sms,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type createBookingRequest struct {
	TeamName        string `json:"teamName"`
	MeetingTitle    string `json:"meetingTitle"`
	AttendeeCount   int    `json:"attendeeCount"`
	DurationMinutes int    `json:"durationMinutes"`
	StartAt         string `json:"startAt"`
	RoomID          string `json:"roomId"`
	MeetingLink     string `json:"meetingLink"`
}

type bookingItem struct {
	ID              string `json:"id"`
	TeamName        string `json:"teamName"`
	MeetingTitle    string `json:"meetingTitle,omitempty"`
	AttendeeCount   int    `json:"attendeeCount"`
	DurationMinutes int    `json:"durationMinutes"`
	StartAt         string `json:"startAt"`
	EndAt           string `json:"endAt"`
	MeetingLink     string `json:"meetingLink,omitempty"`
	RoomID          string `json:"roomId,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

type intervalItem struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type busyItem struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type dayScheduleResponse struct {
	Date      string         `json:"date"`
	Window    intervalItem   `json:"window"`
	Busy      []busyItem     `json:"busy"`
	FreeGaps  []intervalItem `json:"freeGaps"`
	FreeSlots []intervalItem `json:"freeSlots"`
}

type conflictResponse struct {
	Error        string   `json:"error"`
	ConflictWith busyItem `json:"conflictWith"`
}

func bookingToItem(b model.Booking) bookingItem {
	return bookingItem{
		ID:              b.ID,
		TeamName:        b.TeamName,
		MeetingTitle:    b.MeetingTitle,
		AttendeeCount:   b.AttendeeCount,
		DurationMinutes: b.DurationMinutes,
		StartAt:         b.StartAt.UTC().Format(time.RFC3339),
		EndAt:           b.EndAt.UTC().Format(time.RFC3339),
		MeetingLink:     b.MeetingLink,
		RoomID:          b.RoomID,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toInterval(iv schedule.Interval) intervalItem {
	return intervalItem{
		Start: iv.Start.UTC().Format(time.RFC3339),
		End:   iv.End.UTC().Format(time.RFC3339),
	}
}

// mergeBusyEvents folds our own confirmed bookings into the calendar's busy
// blocks. With a real provider every booking also lives on the calendar, so
// entries are matched by the provider event ID; with the noop client the
// database is the only source of busy time.
func mergeBusyEvents(events []schedule.Event, bookings []model.Booking) []schedule.Event {
	byID := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.SourceID != "" {
			byID[ev.SourceID] = struct{}{}
		}
	}
	merged := append([]schedule.Event(nil), events...)
	for _, b := range bookings {
		if b.ExternalEventID != "" {
			if _, ok := byID[b.ExternalEventID]; ok {
				continue
			}
		}
		merged = append(merged, schedule.Event{
			SourceID:    b.ExternalEventID,
			Title:       b.EventTitle(),
			Start:       b.StartAt,
			End:         b.EndAt,
			MeetingLink: b.MeetingLink,
		})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})
	return merged
}


// Day serves the free/busy view for one date: the work window, the busy
// blocks pulled from the calendar, and the bookable slots derived from
// whatever is left.
func (h *BookingsHandler) Day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		date = h.now().In(h.cfg.Timezone).Format("2006-01-02")
	}

	window, err := schedule.WorkWindow(date, h.cfg.WorkStart, h.cfg.WorkEnd, h.cfg.Timezone)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	dayRange, err := schedule.DayRange(date, h.cfg.Timezone)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), dayRange.Start, dayRange.End)
	if err != nil {
		h.calendarError(w, err, "failed to load calendar events")
		return
	}
	booked, err := h.bookings.ListConfirmedBetween(r.Context(), dayRange.Start, dayRange.End)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	events = mergeBusyEvents(events, booked)

	day := schedule.ComputeFreeSlots(window, events, h.cfg.SlotMinutes)

	resp := dayScheduleResponse{
		Date:      date,
		Window:    toInterval(day.Window),
		Busy:      make([]busyItem, 0, len(events)),
		FreeGaps:  make([]intervalItem, 0, len(day.FreeGaps)),
		FreeSlots: make([]intervalItem, 0, len(day.FreeSlots)),
	}
	for _, ev := range events {
		resp.Busy = append(resp.Busy, busyItem{
			Title: ev.Title,
			Start: ev.Start.UTC().Format(time.RFC3339),
			End:   ev.End.UTC().Format(time.RFC3339),
		})
	}
	for _, gap := range day.FreeGaps {
		resp.FreeGaps = append(resp.FreeGaps, toInterval(gap))
	}
	for _, slot := range day.FreeSlots {
		resp.FreeSlots = append(resp.FreeSlots, toInterval(slot))
	}
	writeJSON(w, http.StatusOK, resp)
}

type publicDayResponse struct {
	Date   string     `json:"date"`
	Booked []busyItem `json:"booked"`
}

// PublicDay is the unauthenticated landing-page preview: the requested
// date's booked blocks only, titles and times, no free-slot math and no
// meeting links.
func (h *BookingsHandler) PublicDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date=YYYY-MM-DD required", http.StatusBadRequest)
		return
	}
	dayRange, err := schedule.DayRange(date, h.cfg.Timezone)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), dayRange.Start, dayRange.End)
	if err != nil {
		h.calendarError(w, err, "failed to load calendar events")
		return
	}
	booked, err := h.bookings.ListConfirmedBetween(r.Context(), dayRange.Start, dayRange.End)
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	events = mergeBusyEvents(events, booked)

	resp := publicDayResponse{Date: date, Booked: make([]busyItem, 0, len(events))}
	for _, ev := range events {
		resp.Booked = append(resp.Booked, busyItem{
			Title: ev.Title,
			Start: ev.Start.UTC().Format(time.RFC3339),
			End:   ev.End.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TeamName = strings.TrimSpace(req.TeamName)
	req.MeetingTitle = strings.TrimSpace(req.MeetingTitle)
	if req.TeamName == "" {
		http.Error(w, "teamName required", http.StatusBadRequest)
		return
	}
	if req.AttendeeCount < 1 {
		http.Error(w, "attendeeCount must be at least 1", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes < 30 {
		http.Error(w, "durationMinutes must be at least 30", http.StatusBadRequest)
		return
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		http.Error(w, "invalid startAt", http.StatusBadRequest)
		return
	}
	startAt = startAt.UTC()
	endAt := startAt.Add(time.Duration(req.DurationMinutes) * time.Minute)

	now := h.now().UTC()
	buffer := time.Duration(h.cfg.BufferMinutes) * time.Minute
	if startAt.Before(now.Add(buffer)) {
		http.Error(w, "startAt is too soon", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Conflict detection works off the live calendar, one day either side,
	// so recurring events and bookings made outside this system count too.
	// Confirmed rows from our own database are merged in so conflicts are
	// still caught when the calendar provider is the noop client.
	events, err := h.calendar.ListEvents(ctx, startAt.Add(-24*time.Hour), endAt.Add(24*time.Hour))
	if err != nil {
		h.calendarError(w, err, "failed to load calendar events")
		return
	}
	booked, err := h.bookings.ListConfirmedBetween(ctx, startAt.Add(-24*time.Hour), endAt.Add(24*time.Hour))
	if err != nil {
		http.Error(w, "failed to load bookings", http.StatusInternalServerError)
		return
	}
	events = mergeBusyEvents(events, booked)
	if conflict, found := schedule.FindConflict(startAt, endAt, events, h.cfg.BufferMinutes); found {
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error: "requested time conflicts with an existing booking",
			ConflictWith: busyItem{
				Title: conflict.Title,
				Start: conflict.Start.UTC().Format(time.RFC3339),
				End:   conflict.End.UTC().Format(time.RFC3339),
			},
		})
		return
	}

	booking := model.Booking{
		ID:              uuid.NewString(),
		UserID:          claims.Sub,
		RoomID:          strings.TrimSpace(req.RoomID),
		AttendeeCount:   req.AttendeeCount,
		TeamName:        req.TeamName,
		MeetingTitle:    req.MeetingTitle,
		DurationMinutes: req.DurationMinutes,
		StartAt:         startAt,
		EndAt:           endAt,
		MeetingLink:     strings.TrimSpace(req.MeetingLink),
		Status:          model.BookingConfirmed,
		CreatedAt:       now,
	}

	// The calendar event is created before the row: a booking without its
	// event would silently stop blocking the slot for everyone else.
	eventID, err := h.calendar.CreateEvent(ctx, calendar.EventDetails{
		Title:       booking.EventTitle(),
		Start:       startAt,
		End:         endAt,
		MeetingLink: booking.MeetingLink,
	})
	if err != nil {
		h.calendarError(w, err, "failed to create calendar event")
		return
	}
	booking.ExternalEventID = eventID

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		h.rollbackCalendarEvent(ctx, eventID)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.bookings.Create(ctx, tx, &booking); err != nil {
		h.rollbackCalendarEvent(ctx, eventID)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	if _, err := h.scheduler.CreateForBooking(ctx, tx, booking); err != nil {
		h.rollbackCalendarEvent(ctx, eventID)
		http.Error(w, "failed to schedule reminders", http.StatusInternalServerError)
		return
	}
	if err := h.insertBookingEvent(ctx, tx, outbox.EventBookingCreated, booking); err != nil {
		h.rollbackCalendarEvent(ctx, eventID)
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		h.rollbackCalendarEvent(ctx, eventID)
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	h.recordBooking(r, "booking.created", booking.EventTitle()+" booked", booking.ID, claims.Sub)
	h.sendConfirmation(ctx, booking)

	writeJSON(w, http.StatusCreated, bookingToItem(booking))
}

// Mine lists the caller's bookings, newest start first.
func (h *BookingsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	bookings, err := h.bookings.ListByUser(r.Context(), claims.Sub, 50)
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

// Cancel soft-cancels a booking: status flips to CANCELLED, pending
// reminders are cancelled, and the calendar event is removed best-effort.
// Cancelling an already cancelled booking is a no-op success.
func (h *BookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
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
	if booking.UserID != claims.Sub && claims.Role != string(model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if booking.Status == model.BookingCancelled {
		writeJSON(w, http.StatusOK, bookingToItem(booking))
		return
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.bookings.Cancel(ctx, tx, booking.ID); err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}
	if _, err := h.scheduler.CancelForBooking(ctx, tx, booking.ID); err != nil {
		http.Error(w, "failed to cancel reminders", http.StatusInternalServerError)
		return
	}
	if err := h.insertBookingEvent(ctx, tx, outbox.EventBookingCancelled, booking); err != nil {
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

	h.recordBooking(r, "booking.cancelled", booking.EventTitle()+" cancelled", booking.ID, claims.Sub)

	booking.Status = model.BookingCancelled
	writeJSON(w, http.StatusOK, bookingToItem(booking))
}

func (h *BookingsHandler) insertBookingEvent(ctx context.Context, tx pgx.Tx, eventType string, b model.Booking) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":   b.ID,
		"user_id":      b.UserID,
		"team_name":    b.TeamName,
		"start_at":     b.StartAt.UTC().Format(time.RFC3339),
		"end_at":       b.EndAt.UTC().Format(time.RFC3339),
		"meeting_link": b.MeetingLink,
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: outbox.AggregateBooking,
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func (h *BookingsHandler) recordBooking(r *http.Request, action, description, bookingID, actorID string) {
	if err := h.activity.Record(r.Context(), activity.RecordInput{
		Action:      action,
		Description: description,
		EntityType:  outbox.AggregateBooking,
		EntityID:    bookingID,
		ActorID:     actorID,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
	}); err != nil {
		h.logger.Warn("booking activity record failed", "err", err)
	}
}

// sendConfirmation notifies the booker on both channels. Failures are
// logged, never surfaced: the booking already exists either way.
func (h *BookingsHandler) sendConfirmation(ctx context.Context, b model.Booking) {
	user, err := h.users.GetByID(ctx, b.UserID)
	if err != nil {
		h.logger.Warn("confirmation skipped, user lookup failed", "user_id", b.UserID, "err", err)
		return
	}
	if user.Email != "" {
		if _, err := h.email.Send(notify.EmailMessage{
			To:      user.Email,
			Subject: notify.BookingSubject(b),
			HTML:    notify.BookingEmailHTML(user, b, h.cfg.Timezone),
			Text:    notify.BookingEmailText(user, b, h.cfg.Timezone),
		}); err != nil {
			h.logger.Warn("confirmation email failed", "booking_id", b.ID, "err", err)
		}
	}
	if user.Phone != "" {
		if _, err := h.sms.Send(ctx, user.Phone, notify.BookingSMS(b)); err != nil {
			h.logger.Warn("confirmation sms failed", "booking_id", b.ID, "err", err)
		}
	}
}

// rollbackCalendarEvent removes an event created for a booking whose
// persistence failed, so the slot does not stay blocked by a ghost.
func (h *BookingsHandler) rollbackCalendarEvent(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	if err := h.calendar.DeleteEvent(ctx, eventID); err != nil {
		h.logger.Error("orphaned calendar event cleanup failed", "event_id", eventID, "err", err)
	}
}

func (h *BookingsHandler) calendarError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, calendar.ErrAuthExpired) {
		http.Error(w, "calendar authorization expired, re-authorization required", http.StatusBadGateway)
		return
	}
	http.Error(w, msg, http.StatusBadGateway)
}
