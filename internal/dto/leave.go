package dto

// CreateLeaveRequest submits a leave request for approval.
type CreateLeaveRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// UpdateLeaveRequest edits a pending leave request.
type UpdateLeaveRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}
