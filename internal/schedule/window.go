package schedule

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day ("HH:MM") in the business timezone.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid HH:MM time %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock time to the given calendar day in its location.
func (c Clock) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// WorkWindow anchors the business hours to a YYYY-MM-DD date in loc.
// Callers must have validated start < end at startup; a date that does not
// parse is a per-request validation error.
func WorkWindow(date string, start, end Clock, loc *time.Location) (Interval, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return Interval{Start: start.On(day), End: end.On(day)}, nil
}

// DayRange returns the full local day [00:00, 24:00) for a YYYY-MM-DD date,
// used to fetch that day's calendar events.
func DayRange(date string, loc *time.Location) (Interval, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return Interval{Start: day, End: day.AddDate(0, 0, 1)}, nil
}
