package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether [aStart, aEnd) intersects [bStart, bEnd).
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ShiftEnd returns a copy of iv with End extended by the given minutes.
func (iv Interval) ShiftEnd(minutes int) Interval {
	return Interval{Start: iv.Start, End: iv.End.Add(time.Duration(minutes) * time.Minute)}
}

// Clamp restricts iv to the bounds of win. The second return is false when
// the clamped interval is empty (iv lies outside win or touches its edge).
func (iv Interval) Clamp(win Interval) (Interval, bool) {
	out := iv
	if out.Start.Before(win.Start) {
		out.Start = win.Start
	}
	if out.End.After(win.End) {
		out.End = win.End
	}
	if !out.End.After(out.Start) {
		return Interval{}, false
	}
	return out, true
}

// Event is a busy block sourced from the external calendar. SourceID is the
// provider's event identifier; internal bookings and foreign entries look alike.
type Event struct {
	SourceID    string
	Title       string
	Start       time.Time
	End         time.Time
	MeetingLink string
}
