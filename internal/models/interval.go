package models

import "time"

// DateRange is an inclusive calendar day range. It backs the overlap checks
// shared by leaves, permissions and monthly aggregation.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether the date falls inside the range.
func (r DateRange) Contains(date time.Time) bool {
	d := DayOf(date)
	return !d.Before(DayOf(r.Start)) && !d.After(DayOf(r.End))
}

// Days returns the inclusive day count of the range.
func (r DateRange) Days() int {
	return int(DayOf(r.End).Sub(DayOf(r.Start)).Hours()/24) + 1
}

// DaysList enumerates every day of the range in order.
func (r DateRange) DaysList() []time.Time {
	days := make([]time.Time, 0, r.Days())
	for d := DayOf(r.Start); !d.After(DayOf(r.End)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayOf truncates a timestamp to midnight in its location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthRange returns the inclusive first and last day of a month.
func MonthRange(year int, month time.Month, loc *time.Location) DateRange {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	return DateRange{Start: first, End: last}
}

// WeekRange returns the Monday..Sunday range containing the date.
func WeekRange(date time.Time) DateRange {
	d := DayOf(date)
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)
	return DateRange{Start: monday, End: monday.AddDate(0, 0, 6)}
}
