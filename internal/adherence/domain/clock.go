package domain

import "time"

const slotLayout = "15:04"

// SlotLabel is the wall-clock minute of t in its own location, as "HH:MM".
func SlotLabel(t time.Time) string {
	return t.Format(slotLayout)
}

// ValidSlot reports whether s is a well-formed "HH:MM" label.
func ValidSlot(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(slotLayout, s)
	return err == nil
}

// DayStart returns local midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayBounds returns [start, end) for t's calendar day in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayStart(t, loc)
	return start, start.AddDate(0, 0, 1)
}
