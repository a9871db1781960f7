// Package calendar defines the practice's working-hours grid: time is
// quantized into 15-minute units, and the practice is open 08:00-12:00 and
// 13:00-17:00, Monday through Friday.
package calendar

import "time"

// Quantum is the atomic scheduling unit. Every appointment boundary falls on
// a multiple of it from midnight.
const Quantum = 15 * time.Minute

// Window is the bucket size used when deduplicating slot offerings.
const Window = time.Hour

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether [start, end) lies entirely inside the interval.
func (iv Interval) Contains(start, end time.Time) bool {
	return !start.Before(iv.Start) && !end.After(iv.End)
}

// openingHours holds the daily opening blocks as offsets from midnight.
// The 12:00-13:00 gap is the lunch break.
var openingHours = [2][2]time.Duration{
	{8 * time.Hour, 12 * time.Hour},
	{13 * time.Hour, 17 * time.Hour},
}

// IsBusinessDay reports whether t falls on a weekday the practice is open.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessIntervals returns the opening blocks for the day containing t,
// in chronological order. The result is empty on weekends.
func BusinessIntervals(t time.Time) []Interval {
	if !IsBusinessDay(t) {
		return nil
	}
	midnight := DayStart(t)
	ivs := make([]Interval, 0, len(openingHours))
	for _, block := range openingHours {
		ivs = append(ivs, Interval{Start: midnight.Add(block[0]), End: midnight.Add(block[1])})
	}
	return ivs
}

// BusinessIntervalAt returns the opening block that contains the instant t,
// or false when the practice is closed at t.
func BusinessIntervalAt(t time.Time) (Interval, bool) {
	for _, iv := range BusinessIntervals(t) {
		if !t.Before(iv.Start) && t.Before(iv.End) {
			return iv, true
		}
	}
	return Interval{}, false
}

// IsBusinessTime reports whether the practice is open at the instant t.
func IsBusinessTime(t time.Time) bool {
	_, ok := BusinessIntervalAt(t)
	return ok
}

// Quantize rounds t up to the nearest quantum boundary. Instants already on
// a boundary are returned unchanged. Boundaries are measured from midnight
// so the result is exact in any timezone.
func Quantize(t time.Time) time.Time {
	day := DayStart(t)
	offset := t.Sub(day)
	if rem := offset % Quantum; rem != 0 {
		return day.Add(offset - rem + Quantum)
	}
	return t
}

// IsQuantized reports whether t lies exactly on a quantum boundary.
func IsQuantized(t time.Time) bool {
	return t.Sub(DayStart(t))%Quantum == 0
}

// WindowStart floors t to the start of its 60-minute window.
func WindowStart(t time.Time) time.Time {
	day := DayStart(t)
	offset := t.Sub(day)
	return day.Add(offset - offset%Window)
}

// DayStart returns midnight of the day containing t.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfWorkWeek returns the close of business on the Friday of the week
// containing t. For a Saturday or Sunday this is the close of the week just
// ended.
func EndOfWorkWeek(t time.Time) time.Time {
	daysUntilFriday := int(time.Friday - t.Weekday())
	if t.Weekday() == time.Sunday {
		daysUntilFriday = -2
	}
	friday := DayStart(t).AddDate(0, 0, daysUntilFriday)
	return friday.Add(openingHours[1][1])
}
