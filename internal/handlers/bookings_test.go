package handlers

import (
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/model"
	"github.com/roomdesk/roomdesk/internal/schedule"
)

func TestMergeBusyEvents(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// On the calendar: one foreign event and one event that mirrors our
	// own booking bk-1.
	events := []schedule.Event{
		{SourceID: "ext-2", Title: "All hands", Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour)},
		{SourceID: "ev-bk-1", Title: "Platform — Standup", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
	}
	bookings := []model.Booking{
		{ID: "bk-1", TeamName: "Platform", MeetingTitle: "Standup", StartAt: day.Add(9 * time.Hour), EndAt: day.Add(10 * time.Hour), ExternalEventID: "ev-bk-1"},
		{ID: "bk-2", TeamName: "Data", StartAt: day.Add(11 * time.Hour), EndAt: day.Add(12 * time.Hour), ExternalEventID: ""},
	}

	merged := mergeBusyEvents(events, bookings)

	if len(merged) != 3 {
		t.Fatalf("expected 3 busy blocks (bk-1 deduped), got %d: %+v", len(merged), merged)
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Start.Before(merged[i-1].Start) {
			t.Fatalf("merged blocks not sorted by start: %+v", merged)
		}
	}
	var sawData bool
	for _, ev := range merged {
		if ev.Title == "Data" {
			sawData = true
		}
	}
	if !sawData {
		t.Fatal("booking without a calendar event should appear as a busy block")
	}
}

func TestMergeBusyEvents_NoCalendar(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bookings := []model.Booking{
		{ID: "bk-1", TeamName: "Platform", StartAt: day.Add(9 * time.Hour), EndAt: day.Add(10 * time.Hour)},
	}

	// The noop calendar client lists nothing; confirmed rows must still
	// surface so conflict checks and the day view keep working.
	merged := mergeBusyEvents(nil, bookings)
	if len(merged) != 1 || merged[0].Title != "Platform" {
		t.Fatalf("expected the booking as the only busy block, got %+v", merged)
	}
}
