package models

import "time"

// PermissionType classifies an excusal request. "missing" excuses a full-day
// absence; "late" and "early_leave" only suppress the corresponding penalty
// and never change the attendance status.
type PermissionType string

const (
	PermissionMissing    PermissionType = "missing"
	PermissionLate       PermissionType = "late"
	PermissionEarlyLeave PermissionType = "early_leave"
)

// NormalizePermissionType maps input spellings onto canonical types. The
// legacy mobile client sends "messing" for full-day absences.
func NormalizePermissionType(raw string) (PermissionType, bool) {
	switch PermissionType(raw) {
	case PermissionMissing, "messing":
		return PermissionMissing, true
	case PermissionLate:
		return PermissionLate, true
	case PermissionEarlyLeave:
		return PermissionEarlyLeave, true
	}
	return "", false
}

// Permission excuses lateness, early departure or a full-day absence over a
// date range. StartTime/EndTime are optional; both nil means full-day.
type Permission struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	Type       PermissionType `db:"type" json:"type"`
	StartDate  time.Time      `db:"start_date" json:"start_date"`
	EndDate    time.Time      `db:"end_date" json:"end_date"`
	StartTime  *string        `db:"start_time" json:"start_time,omitempty"`
	EndTime    *string        `db:"end_time" json:"end_time,omitempty"`
	Reason     string         `db:"reason" json:"reason"`
	Status     RequestStatus  `db:"status" json:"status"`
	ApprovedBy *string        `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Range returns the inclusive date range of the permission.
func (p *Permission) Range() DateRange {
	return DateRange{Start: p.StartDate, End: p.EndDate}
}

// IsFullDay reports whether the permission has no time bounds.
func (p *Permission) IsFullDay() bool {
	return p.StartTime == nil && p.EndTime == nil
}

// PermissionFilter captures listing criteria.
type PermissionFilter struct {
	UserID   string
	Type     *PermissionType
	Status   *RequestStatus
	Page     int
	PageSize int
}
