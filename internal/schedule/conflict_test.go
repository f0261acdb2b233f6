package schedule

import "testing"

func TestFindConflictBufferBoundary(t *testing.T) {
	existing := []Event{{SourceID: "ev-1", Title: "Design review", Start: at(t, "09:00"), End: at(t, "09:45")}}

	// Buffered end = 10:00. A candidate starting exactly then touches but
	// does not overlap.
	if _, found := FindConflict(at(t, "10:00"), at(t, "10:30"), existing, 15); found {
		t.Fatal("candidate starting exactly at buffered end must not conflict")
	}

	// One minute earlier still falls inside the cooldown.
	ev, found := FindConflict(at(t, "09:59"), at(t, "10:29"), existing, 15)
	if !found {
		t.Fatal("candidate starting inside the cooldown must conflict")
	}
	if ev.SourceID != "ev-1" {
		t.Fatalf("conflict = %+v", ev)
	}
}

func TestFindConflictZeroBuffer(t *testing.T) {
	existing := []Event{{SourceID: "ev-1", Start: at(t, "09:00"), End: at(t, "10:00")}}

	if _, found := FindConflict(at(t, "10:00"), at(t, "11:00"), existing, 0); found {
		t.Fatal("back-to-back bookings must not conflict with zero buffer")
	}
	if _, found := FindConflict(at(t, "09:30"), at(t, "10:30"), existing, 0); !found {
		t.Fatal("overlapping candidate must conflict")
	}
}

func TestFindConflictFirstMatchWins(t *testing.T) {
	existing := []Event{
		{SourceID: "ev-1", Start: at(t, "09:00"), End: at(t, "10:00")},
		{SourceID: "ev-2", Start: at(t, "09:30"), End: at(t, "10:30")},
	}
	ev, found := FindConflict(at(t, "09:45"), at(t, "10:15"), existing, 0)
	if !found || ev.SourceID != "ev-1" {
		t.Fatalf("expected first event in caller order, got %+v found=%v", ev, found)
	}
}

func TestFindConflictNoEvents(t *testing.T) {
	if _, found := FindConflict(at(t, "09:00"), at(t, "10:00"), nil, 30); found {
		t.Fatal("no events means no conflict")
	}
}

func TestFindConflictCandidateEndNotBuffered(t *testing.T) {
	// Only the existing event's end is buffered; an event starting right at
	// the candidate's end does not conflict regardless of buffer.
	existing := []Event{{SourceID: "later", Start: at(t, "11:00"), End: at(t, "12:00")}}
	if _, found := FindConflict(at(t, "10:00"), at(t, "11:00"), existing, 15); found {
		t.Fatal("buffer must not apply to the candidate's own end")
	}
}
