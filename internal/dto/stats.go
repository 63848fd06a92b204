package dto

// UserMonthlyStats aggregates one user's attendance over a calendar month.
type UserMonthlyStats struct {
	UserID           string  `json:"user_id"`
	Name             string  `json:"name"`
	Department       *string `json:"department,omitempty"`
	Month            string  `json:"month"`
	PresenceHours    float64 `json:"presence_hours"`
	LateHours        float64 `json:"late_hours"`
	Absences         int     `json:"absences"`
	PermissionsCount int     `json:"permissions_count"`
}

// UserMonthlyCounts summarises day counts per user for the all-users report.
type UserMonthlyCounts struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	Department     *string `json:"department,omitempty"`
	PresentDays    int     `json:"present_days"`
	LateDays       int     `json:"late_days"`
	AbsentDays     int     `json:"absent_days"`
	PermissionDays int     `json:"permission_days"`
}

// UserScheduleHours cross-references each day's scheduled window: days with
// no attendance row are charged as a full-shift absence.
type UserScheduleHours struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Department   *string `json:"department,omitempty"`
	PresentHours float64 `json:"present_hours"`
	AbsentHours  float64 `json:"absent_hours"`
	LateHours    float64 `json:"late_hours"`
}

// MonthlyStatsReport bundles the organisation-wide monthly summary.
type MonthlyStatsReport struct {
	Month string              `json:"month"`
	Data  []UserScheduleHours `json:"data"`
}
