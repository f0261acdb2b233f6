package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/model"
)

func formatWhen(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Mon, 02 Jan 2006 3:04 PM")
}

func BookingSubject(b model.Booking) string {
	return "Boardroom booking confirmed: " + b.EventTitle()
}

func BookingEmailHTML(user model.User, b model.Booking, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(`<div style="font-family: Arial, sans-serif; line-height: 1.6">`)
	sb.WriteString("<h2>Booking confirmed</h2>")
	fmt.Fprintf(&sb, "<p>Hello %s,</p>", user.Name)
	sb.WriteString("<p>Your boardroom booking has been confirmed.</p><ul>")
	fmt.Fprintf(&sb, "<li><b>Meeting:</b> %s</li>", b.EventTitle())
	fmt.Fprintf(&sb, "<li><b>Start:</b> %s</li>", formatWhen(b.StartAt, loc))
	fmt.Fprintf(&sb, "<li><b>End:</b> %s</li>", formatWhen(b.EndAt, loc))
	fmt.Fprintf(&sb, "<li><b>Duration:</b> %d minutes</li>", b.DurationMinutes)
	sb.WriteString("</ul>")
	if b.MeetingLink != "" {
		fmt.Fprintf(&sb, "<p><b>Meeting link:</b> %s</p>", b.MeetingLink)
	}
	sb.WriteString("<p>Thanks.</p></div>")
	return sb.String()
}

func BookingEmailText(user model.User, b model.Booking, loc *time.Location) string {
	lines := []string{
		fmt.Sprintf("Hello %s,", user.Name),
		"",
		"Your boardroom booking has been confirmed.",
		"Meeting: " + b.EventTitle(),
		"Start: " + formatWhen(b.StartAt, loc),
		"End: " + formatWhen(b.EndAt, loc),
		fmt.Sprintf("Duration: %d minutes", b.DurationMinutes),
	}
	if b.MeetingLink != "" {
		lines = append(lines, "Meeting link: "+b.MeetingLink)
	}
	return strings.Join(lines, "\n")
}

func BookingSMS(b model.Booking) string {
	return fmt.Sprintf("Booking confirmed: %s (%d people).", b.TeamName, b.AttendeeCount)
}

// ReminderSubject and ReminderText switch exhaustively over the reminder
// type; new types must be given wording here before they can be dispatched.
func ReminderSubject(t model.ReminderType, b model.Booking) string {
	switch t {
	case model.ReminderStarts20:
		return fmt.Sprintf("Starting soon: %s", b.EventTitle())
	case model.ReminderJoinNow:
		return fmt.Sprintf("Starting now: %s", b.EventTitle())
	case model.ReminderEnding10:
		return fmt.Sprintf("Wrapping up: %s", b.EventTitle())
	}
	return fmt.Sprintf("Reminder: %s", b.EventTitle())
}

func ReminderText(t model.ReminderType, b model.Booking, loc *time.Location) string {
	title := b.EventTitle()
	switch t {
	case model.ReminderStarts20:
		return fmt.Sprintf("Reminder: %q starts in 20 minutes (%s).", title, formatWhen(b.StartAt, loc))
	case model.ReminderJoinNow:
		msg := fmt.Sprintf("Now: %q is starting.", title)
		if b.MeetingLink != "" {
			msg += " Join: " + b.MeetingLink
		}
		return msg
	case model.ReminderEnding10:
		return fmt.Sprintf("Heads up: %q ends in 10 minutes.", title)
	}
	return fmt.Sprintf("Reminder: %q.", title)
}

func ReminderSMS(t model.ReminderType, b model.Booking) string {
	title := b.EventTitle()
	switch t {
	case model.ReminderStarts20:
		return fmt.Sprintf("Reminder: %q starts in 20 minutes.", title)
	case model.ReminderJoinNow:
		return fmt.Sprintf("Now: %q is starting.", title)
	case model.ReminderEnding10:
		return fmt.Sprintf("Heads up: %q ends in 10 minutes.", title)
	}
	return fmt.Sprintf("Reminder: %q.", title)
}
