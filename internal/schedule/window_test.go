package schedule

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:30")
	if err != nil {
		t.Fatalf("ParseClock failed: %v", err)
	}
	if c.Hour != 8 || c.Minute != 30 {
		t.Fatalf("ParseClock = %+v", c)
	}

	for _, bad := range []string{"8:30am", "25:00", "08:61", "0830", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWorkWindowLocalAnchoring(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	start, _ := ParseClock("08:00")
	end, _ := ParseClock("18:00")

	win, err := WorkWindow("2024-03-01", start, end, loc)
	if err != nil {
		t.Fatalf("WorkWindow failed: %v", err)
	}
	if win.Start.Hour() != 8 || win.Start.Minute() != 0 {
		t.Fatalf("window start = %s, want 08:00 local", win.Start)
	}
	if win.End.Hour() != 18 {
		t.Fatalf("window end = %s, want 18:00 local", win.End)
	}
	if win.Start.Location() != loc {
		t.Fatalf("window not anchored in business timezone: %s", win.Start.Location())
	}
	if got := win.Duration(); got != 10*time.Hour {
		t.Fatalf("window duration = %s, want 10h", got)
	}
}

func TestWorkWindowRejectsBadDate(t *testing.T) {
	start, _ := ParseClock("08:00")
	end, _ := ParseClock("18:00")
	for _, bad := range []string{"2024-3-1", "01-03-2024", "yesterday", ""} {
		if _, err := WorkWindow(bad, start, end, time.UTC); err == nil {
			t.Fatalf("expected error for date %q", bad)
		}
	}
}

func TestDayRange(t *testing.T) {
	r, err := DayRange("2024-03-01", time.UTC)
	if err != nil {
		t.Fatalf("DayRange failed: %v", err)
	}
	if r.Start.Hour() != 0 || !r.End.Equal(r.Start.AddDate(0, 0, 1)) {
		t.Fatalf("DayRange = %+v", r)
	}
}
