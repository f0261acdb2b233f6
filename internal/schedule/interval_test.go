package schedule

import (
	"testing"
	"time"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", "2024-03-01 "+hhmm)
	if err != nil {
		t.Fatalf("bad test time %q: %v", hhmm, err)
	}
	return parsed
}

func TestOverlapsHalfOpen(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"disjoint", "09:00", "10:00", "11:00", "12:00", false},
		{"touching end-to-start", "09:00", "10:00", "10:00", "11:00", false},
		{"touching start-to-end", "10:00", "11:00", "09:00", "10:00", false},
		{"strict intersection", "09:00", "10:30", "10:00", "11:00", true},
		{"containment", "09:00", "12:00", "10:00", "11:00", true},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
	}
	for _, tc := range cases {
		got := Overlaps(at(t, tc.aStart), at(t, tc.aEnd), at(t, tc.bStart), at(t, tc.bEnd))
		if got != tc.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestShiftEnd(t *testing.T) {
	iv := Interval{Start: at(t, "09:00"), End: at(t, "09:45")}
	shifted := iv.ShiftEnd(15)
	if !shifted.Start.Equal(iv.Start) {
		t.Fatalf("ShiftEnd moved Start to %s", shifted.Start)
	}
	if !shifted.End.Equal(at(t, "10:00")) {
		t.Fatalf("ShiftEnd end = %s, want 10:00", shifted.End)
	}
	// Original is untouched.
	if !iv.End.Equal(at(t, "09:45")) {
		t.Fatalf("ShiftEnd mutated receiver: %s", iv.End)
	}
}

func TestClamp(t *testing.T) {
	win := Interval{Start: at(t, "08:00"), End: at(t, "18:00")}

	clamped, ok := (Interval{Start: at(t, "07:00"), End: at(t, "09:00")}).Clamp(win)
	if !ok || !clamped.Start.Equal(win.Start) || !clamped.End.Equal(at(t, "09:00")) {
		t.Fatalf("partial overlap clamp = %+v ok=%v", clamped, ok)
	}

	if _, ok := (Interval{Start: at(t, "06:00"), End: at(t, "07:00")}).Clamp(win); ok {
		t.Fatal("interval entirely before window should clamp to empty")
	}
	if _, ok := (Interval{Start: at(t, "18:00"), End: at(t, "19:00")}).Clamp(win); ok {
		t.Fatal("interval touching window end should clamp to empty")
	}
	full, ok := (Interval{Start: at(t, "06:00"), End: at(t, "20:00")}).Clamp(win)
	if !ok || !full.Start.Equal(win.Start) || !full.End.Equal(win.End) {
		t.Fatalf("spanning interval should clamp to full window, got %+v", full)
	}
}
