package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/model"
)

func sampleBooking() model.Booking {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return model.Booking{
		TeamName:        "Platform",
		MeetingTitle:    "Sprint review",
		AttendeeCount:   6,
		DurationMinutes: 60,
		StartAt:         start,
		EndAt:           start.Add(time.Hour),
		MeetingLink:     "https://meet.example/abc",
	}
}

func TestBookingSubjectIncludesTeamAndTitle(t *testing.T) {
	got := BookingSubject(sampleBooking())
	if !strings.Contains(got, "Platform — Sprint review") {
		t.Fatalf("subject = %q", got)
	}

	noTitle := sampleBooking()
	noTitle.MeetingTitle = ""
	if got := BookingSubject(noTitle); !strings.HasSuffix(got, "Platform") {
		t.Fatalf("subject without title = %q", got)
	}
}

func TestBookingEmailBodies(t *testing.T) {
	user := model.User{Name: "Wanjiku"}
	b := sampleBooking()

	html := BookingEmailHTML(user, b, time.UTC)
	text := BookingEmailText(user, b, time.UTC)
	for _, body := range []string{html, text} {
		if !strings.Contains(body, "Wanjiku") {
			t.Fatalf("body missing user name: %q", body)
		}
		if !strings.Contains(body, "60 minutes") {
			t.Fatalf("body missing duration: %q", body)
		}
		if !strings.Contains(body, b.MeetingLink) {
			t.Fatalf("body missing meeting link: %q", body)
		}
	}
}

func TestReminderWordingPerType(t *testing.T) {
	b := sampleBooking()

	cases := []struct {
		typ  model.ReminderType
		want string
	}{
		{model.ReminderStarts20, "starts in 20 minutes"},
		{model.ReminderJoinNow, "is starting"},
		{model.ReminderEnding10, "ends in 10 minutes"},
	}
	for _, tc := range cases {
		if got := ReminderSMS(tc.typ, b); !strings.Contains(got, tc.want) {
			t.Fatalf("%s sms = %q, want %q", tc.typ, got, tc.want)
		}
		if got := ReminderText(tc.typ, b, time.UTC); !strings.Contains(got, tc.want) {
			t.Fatalf("%s text = %q, want %q", tc.typ, got, tc.want)
		}
	}

	// JOIN_NOW text carries the meeting link when present.
	if got := ReminderText(model.ReminderJoinNow, b, time.UTC); !strings.Contains(got, b.MeetingLink) {
		t.Fatalf("join-now text missing link: %q", got)
	}
}

func TestBuildMessageMultipart(t *testing.T) {
	msg := EmailMessage{To: "a@b.c", Subject: "s", HTML: "<p>hi</p>", Text: "hi"}
	raw := buildMessage("noreply@x", "abcdef0123456789@x", msg)
	if !strings.Contains(raw, "multipart/alternative") {
		t.Fatalf("expected multipart message, got %q", raw)
	}
	if !strings.Contains(raw, "text/plain") || !strings.Contains(raw, "text/html") {
		t.Fatalf("missing alternative parts: %q", raw)
	}

	plain := buildMessage("noreply@x", "abcdef0123456789@x", EmailMessage{To: "a@b.c", Subject: "s", Text: "hi"})
	if strings.Contains(plain, "multipart") {
		t.Fatalf("text-only message should not be multipart: %q", plain)
	}
}
