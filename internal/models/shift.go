package models

import "time"

// ShiftType distinguishes the two daily work windows.
type ShiftType string

const (
	ShiftMorning ShiftType = "morning"
	ShiftEvening ShiftType = "evening"
)

// Valid reports whether the shift type is known.
func (t ShiftType) Valid() bool {
	return t == ShiftMorning || t == ShiftEvening
}

// Shift is a named daily work window. Times are stored as "HH:MM:SS"
// time-of-day strings; an end at or before the start means the window wraps
// past midnight (evening shifts ending at 00:00).
type Shift struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Label     string    `db:"label" json:"label"`
	Type      ShiftType `db:"type" json:"type"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	WorkSchedules []WorkSchedule `db:"-" json:"work_schedules,omitempty"`
}

// ScheduleFor returns the per-weekday override for the given day, if any.
func (s *Shift) ScheduleFor(day time.Weekday) *WorkSchedule {
	for i := range s.WorkSchedules {
		if s.WorkSchedules[i].Weekday() == day {
			return &s.WorkSchedules[i]
		}
	}
	return nil
}

// WorkSchedule overrides a shift's window for a single weekday.
type WorkSchedule struct {
	ID           string `db:"id" json:"id"`
	ShiftID      string `db:"shift_id" json:"shift_id"`
	Day          string `db:"day" json:"day"`
	StartTime    string `db:"start_time" json:"start_time"`
	EndTime      string `db:"end_time" json:"end_time"`
	IsWorkingDay bool   `db:"is_working_day" json:"is_working_day"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday maps the stored lowercase day name onto time.Weekday.
func (w WorkSchedule) Weekday() time.Weekday {
	return weekdayNames[w.Day]
}

// ValidWeekday reports whether the name is a known lowercase weekday.
func ValidWeekday(name string) bool {
	_, ok := weekdayNames[name]
	return ok
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
