package dto

import "time"

// CheckRequest is the payload for check-in and check-out calls.
type CheckRequest struct {
	Source     string `json:"source" validate:"required"`
	ScanMethod string `json:"scan_method"`
}

// CheckInResult echoes the outcome of a successful check-in.
type CheckInResult struct {
	MinutesLate int    `json:"minutes_late"`
	ShiftType   string `json:"shift_type"`
	ShiftStart  string `json:"shift_start"`
	ShiftEnd    string `json:"shift_end"`
}

// CheckOutResult echoes the outcome of a successful check-out.
type CheckOutResult struct {
	WorkedMinutes int    `json:"worked_minutes"`
	EarlyLeave    bool   `json:"early_leave"`
	ShiftType     string `json:"shift_type"`
	ShiftEnd      string `json:"shift_end"`
}

// AttendanceView decorates an attendance row with per-day lateness flags and
// the permission lookups clients render next to it.
type AttendanceView struct {
	UserID                  string    `json:"user_id"`
	FirstName               string    `json:"first_name"`
	LastName                string    `json:"last_name"`
	Date                    time.Time `json:"date"`
	CheckIn                 *string   `json:"check_in"`
	CheckOut                *string   `json:"check_out"`
	MinutesLate             int       `json:"minutes_late"`
	Status                  string    `json:"status"`
	IsLate                  bool      `json:"is_late"`
	LeftEarly               bool      `json:"left_early"`
	HasLatePermission       bool      `json:"has_late_permission"`
	HasEarlyLeavePermission bool      `json:"has_early_leave_permission"`
}

// AutoFillRequest triggers bulk attendance materialization.
type AutoFillRequest struct {
	ShiftType string `json:"shift_type" validate:"required"`
	Date      string `json:"date"`
}

// AutoFillResult reports how many records a materialization pass created.
type AutoFillResult struct {
	CreatedCount int    `json:"created_count"`
	SkippedCount int    `json:"skipped_count"`
	Date         string `json:"date"`
	ShiftType    string `json:"shift_type"`
}

// TodaySituation is the daily dashboard payload.
type TodaySituation struct {
	AttendancesToday   interface{}    `json:"attendances_today"`
	PendingPermissions interface{}    `json:"pending_permissions"`
	PendingLeaves      interface{}    `json:"pending_leaves"`
	Statistics         TodayStatistic `json:"statistics"`
}

// TodayStatistic carries the dashboard counters.
type TodayStatistic struct {
	Present              int `json:"present"`
	Absent               int `json:"absent"`
	Late                 int `json:"late"`
	TotalPendingRequests int `json:"total_pending_requests_today"`
}
