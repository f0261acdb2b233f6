package schedule

import "time"

// FindConflict returns the first existing event whose buffered interval
// overlaps the candidate [newStart, newEnd). Each event's end is extended by
// bufferMinutes before testing, so a new booking may not start until the
// cooldown after a prior event has elapsed. Only the existing event's end is
// buffered; later events are checked from their own start. Events are tested
// in caller-supplied order.
func FindConflict(newStart, newEnd time.Time, existing []Event, bufferMinutes int) (Event, bool) {
	buffer := time.Duration(bufferMinutes) * time.Minute
	for _, ev := range existing {
		bufferedEnd := ev.End.Add(buffer)
		if Overlaps(newStart, newEnd, ev.Start, bufferedEnd) {
			return ev, true
		}
	}
	return Event{}, false
}
