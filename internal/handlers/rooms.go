package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomdesk/roomdesk/internal/activity"
	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/storage"
)

type RoomsHandler struct {
	rooms    *storage.RoomRepository
	activity *activity.Repository
	logger   *slog.Logger
}

func NewRoomsHandler(rooms *storage.RoomRepository, activityRepo *activity.Repository, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{rooms: rooms, activity: activityRepo, logger: logger}
}

type roomRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
	IsActive *bool  `json:"isActive,omitempty"`
}

type roomItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
	IsActive bool   `json:"isActive"`
	Created  string `json:"createdAt"`
}

func roomToItem(r model.Room) roomItem {
	return roomItem{
		ID:       r.ID,
		Name:     r.Name,
		Capacity: r.Capacity,
		Location: r.Location,
		Notes:    r.Notes,
		IsActive: r.IsActive,
		Created:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns rooms, active only unless ?all=true.
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	all := r.URL.Query().Get("all") == "true"
	rooms, err := h.rooms.List(r.Context(), !all)
	if err != nil {
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}
	items := make([]roomItem, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, roomToItem(room))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.Capacity < 1 {
		http.Error(w, "capacity must be at least 1", http.StatusBadRequest)
		return
	}

	room := &model.Room{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Capacity: req.Capacity,
		Location: strings.TrimSpace(req.Location),
		Notes:    strings.TrimSpace(req.Notes),
		IsActive: true,
	}
	if err := h.rooms.Create(r.Context(), room); err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "room name already in use", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	h.record(r, "room.created", "room "+room.Name+" created", room.ID)
	writeJSON(w, http.StatusCreated, roomToItem(*room))
}

func (h *RoomsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		http.Error(w, "id and name required", http.StatusBadRequest)
		return
	}
	if req.Capacity < 1 {
		http.Error(w, "capacity must be at least 1", http.StatusBadRequest)
		return
	}

	room, err := h.rooms.GetByID(r.Context(), req.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load room", http.StatusInternalServerError)
		return
	}

	room.Name = req.Name
	room.Capacity = req.Capacity
	room.Location = strings.TrimSpace(req.Location)
	room.Notes = strings.TrimSpace(req.Notes)
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	if err := h.rooms.Update(r.Context(), &room); err != nil {
		if storage.IsDuplicate(err) {
			http.Error(w, "room name already in use", http.StatusConflict)
			return
		}
		http.Error(w, "failed to update room", http.StatusInternalServerError)
		return
	}

	h.record(r, "room.updated", "room "+room.Name+" updated", room.ID)
	writeJSON(w, http.StatusOK, roomToItem(room))
}

// Deactivate retires a room so it no longer shows in listings. Existing
// bookings keep their reference.
func (h *RoomsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.rooms.Deactivate(r.Context(), req.ID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate room", http.StatusInternalServerError)
		return
	}
	h.record(r, "room.deactivated", "room deactivated", req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomsHandler) record(r *http.Request, action, description, roomID string) {
	actorID := ""
	if claims, ok := ClaimsFrom(r.Context()); ok {
		actorID = claims.Sub
	}
	if err := h.activity.Record(r.Context(), activity.RecordInput{
		Action:      action,
		Description: description,
		EntityType:  "room",
		EntityID:    roomID,
		ActorID:     actorID,
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
	}); err != nil {
		h.logger.Warn("room activity record failed", "err", err)
	}
}
