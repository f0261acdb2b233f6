package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingCancelled:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

type Booking struct {
	ID              string
	UserID          string
	RoomID          string // optional, empty when the booking predates room assignment
	AttendeeCount   int
	TeamName        string
	MeetingTitle    string
	DurationMinutes int
	StartAt         time.Time
	EndAt           time.Time
	MeetingLink     string
	Status          BookingStatus
	ExternalEventID string
	CreatedAt       time.Time
}

// EventTitle is the summary written to the external calendar.
func (b Booking) EventTitle() string {
	if b.MeetingTitle != "" {
		return b.TeamName + " — " + b.MeetingTitle
	}
	return b.TeamName
}
