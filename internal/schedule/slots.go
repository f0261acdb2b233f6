package schedule

import (
	"sort"
	"time"
)

// DaySchedule is the derived free/busy view of one work window. It is
// recomputed on every query and never persisted.
type DaySchedule struct {
	Window    Interval
	FreeGaps  []Interval
	FreeSlots []Interval
}

// ComputeFreeSlots subtracts the busy events from the work window and snaps
// the remaining gaps into fixed-size bookable slots.
//
// Events may be unordered and may extend outside the window; overlapping
// events are merged by the sweep. Each gap is cut into consecutive
// slotMinutes chunks left to right; a trailing remainder shorter than
// slotMinutes is dropped, never emitted as a short slot.
func ComputeFreeSlots(window Interval, busy []Event, slotMinutes int) DaySchedule {
	sorted := make([]Event, len(busy))
	copy(sorted, busy)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var blocks []Interval
	for _, ev := range sorted {
		block, ok := (Interval{Start: ev.Start, End: ev.End}).Clamp(window)
		if ok {
			blocks = append(blocks, block)
		}
	}

	var gaps []Interval
	cursor := window.Start
	for _, b := range blocks {
		if cursor.Before(b.Start) {
			gaps = append(gaps, Interval{Start: cursor, End: b.Start})
		}
		if cursor.Before(b.End) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}

	slotLen := time.Duration(slotMinutes) * time.Minute
	var slots []Interval
	for _, gap := range gaps {
		for t := gap.Start; !t.Add(slotLen).After(gap.End); t = t.Add(slotLen) {
			slots = append(slots, Interval{Start: t, End: t.Add(slotLen)})
		}
	}

	return DaySchedule{Window: window, FreeGaps: gaps, FreeSlots: slots}
}
