package models

import "time"

// AttendanceStatus is the resolved state of one (user, date) record.
type AttendanceStatus string

const (
	AttendancePresent    AttendanceStatus = "present"
	AttendanceAbsent     AttendanceStatus = "absent"
	AttendanceDayOff     AttendanceStatus = "day_off"
	AttendanceOnLeave    AttendanceStatus = "on_leave"
	AttendancePermission AttendanceStatus = "permission"
)

// Valid reports whether the status is one of the known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceDayOff, AttendanceOnLeave, AttendancePermission:
		return true
	}
	return false
}

// Attendance is one record per user per date, unique on (user_id, date).
// Check-in/check-out are "HH:MM:SS" times of day; ShiftStart/ShiftEnd
// snapshot the effective window at materialization time.
type Attendance struct {
	ID                string           `db:"id" json:"id"`
	UserID            string           `db:"user_id" json:"user_id"`
	Date              time.Time        `db:"date" json:"date"`
	CheckIn           *string          `db:"check_in" json:"check_in,omitempty"`
	CheckOut          *string          `db:"check_out" json:"check_out,omitempty"`
	MinutesLate       int              `db:"minutes_late" json:"minutes_late"`
	TotalMinutesLate  int              `db:"total_minutes_late" json:"total_minutes_late"`
	Status            AttendanceStatus `db:"status" json:"status"`
	EarlyLeave        bool             `db:"early_leave" json:"early_leave"`
	ScanMethod        string           `db:"scan_method" json:"scan_method"`
	ShiftStart        *string          `db:"shift_start" json:"shift_start,omitempty"`
	ShiftEnd          *string          `db:"shift_end" json:"shift_end,omitempty"`
	HasLatePermission bool             `db:"has_late_permission" json:"has_late_permission"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// IsLate reports whether the day carries a lateness penalty.
func (a *Attendance) IsLate() bool {
	return a.MinutesLate > 0
}

// AttendanceFilter captures listing criteria.
type AttendanceFilter struct {
	UserID   string
	Status   *AttendanceStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// AttendanceRecord is a listing row joined with the user identity.
type AttendanceRecord struct {
	Attendance
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Role      string `db:"role" json:"role"`
}

// DailyCounts aggregates one day's record statuses.
type DailyCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}
