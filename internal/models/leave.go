package models

import "time"

// RequestStatus is shared by leave and permission workflows.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether the status is a known workflow state.
func (s RequestStatus) Valid() bool {
	return s == RequestPending || s == RequestApproved || s == RequestRejected
}

// Leave is a multi-day absence request that debits the user's leave balance
// on approval. Rejection leaves the balance untouched.
type Leave struct {
	ID         string        `db:"id" json:"id"`
	UserID     string        `db:"user_id" json:"user_id"`
	StartDate  time.Time     `db:"start_date" json:"start_date"`
	EndDate    time.Time     `db:"end_date" json:"end_date"`
	Reason     string        `db:"reason" json:"reason"`
	Status     RequestStatus `db:"status" json:"status"`
	ApprovedBy *string       `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// Range returns the inclusive date range of the leave.
func (l *Leave) Range() DateRange {
	return DateRange{Start: l.StartDate, End: l.EndDate}
}

// TotalDays is the inclusive day count debited from the balance at approval.
func (l *Leave) TotalDays() int {
	return l.Range().Days()
}

// CoversDate reports whether the leave spans the given date.
func (l *Leave) CoversDate(date time.Time) bool {
	return l.Range().Contains(date)
}

// LeaveFilter captures listing criteria.
type LeaveFilter struct {
	UserID   string
	Status   *RequestStatus
	Month    *DateRange
	Page     int
	PageSize int
}
