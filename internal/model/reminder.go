package model

import (
	"fmt"
	"time"
)

// ReminderType is a closed enumeration; every switch over it must handle
// all three values and fail loudly on anything else.
type ReminderType string

const (
	ReminderStarts20 ReminderType = "STARTS_20"
	ReminderJoinNow  ReminderType = "JOIN_NOW"
	ReminderEnding10 ReminderType = "ENDING_10"
)

func ParseReminderType(s string) (ReminderType, error) {
	switch ReminderType(s) {
	case ReminderStarts20, ReminderJoinNow, ReminderEnding10:
		return ReminderType(s), nil
	default:
		return "", fmt.Errorf("unknown reminder type %q", s)
	}
}

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderSent      ReminderStatus = "SENT"
	ReminderFailed    ReminderStatus = "FAILED"
	ReminderCancelled ReminderStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s ReminderStatus) Terminal() bool {
	return s == ReminderSent || s == ReminderFailed || s == ReminderCancelled
}

type Reminder struct {
	ID             string
	UserID         string
	BookingID      string
	Type           ReminderType
	ScheduledAt    time.Time
	Status         ReminderStatus
	SentAt         *time.Time
	FailedAt       *time.Time
	LastError      string
	EmailMessageID string
	SMSMessageID   string
	CreatedAt      time.Time
}
