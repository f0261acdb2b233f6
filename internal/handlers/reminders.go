package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/model"
)

type reminderLister interface {
	ListForUser(ctx context.Context, userID string, upcomingOnly bool, now time.Time, limit int) ([]model.Reminder, error)
}

type RemindersHandler struct {
	reminders reminderLister
	logger    *slog.Logger
	now       func() time.Time
}

func NewRemindersHandler(reminders reminderLister, logger *slog.Logger) *RemindersHandler {
	return &RemindersHandler{reminders: reminders, logger: logger, now: time.Now}
}

// Mine lists the caller's own reminders oldest first. With ?upcoming=true
// only pending reminders that have not come due yet are returned.
func (h *RemindersHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upcoming := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("upcoming")), "true")

	reminders, err := h.reminders.ListForUser(r.Context(), claims.Sub, upcoming, h.now().UTC(), 200)
	if err != nil {
		h.logger.Error("listing user reminders failed", "user_id", claims.Sub, "err", err)
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}

	items := make([]reminderItem, 0, len(reminders))
	for _, rem := range reminders {
		items = append(items, reminderToItem(rem))
	}
	writeJSON(w, http.StatusOK, items)
}
