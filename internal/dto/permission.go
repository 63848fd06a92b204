package dto

// CreatePermissionRequest submits a permission request. Type accepts the
// legacy "messing" spelling for missing permissions. StartTime/EndTime
// are optional "HH:MM" bounds; both absent means full-day.
type CreatePermissionRequest struct {
	UserID    string  `json:"user_id"`
	Type      string  `json:"type" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    string  `json:"reason" validate:"required"`
}

// UpdatePermissionRequest edits a pending permission request. Omitted
// time bounds reset the request to full-day.
type UpdatePermissionRequest struct {
	Type      string  `json:"type" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Reason    string  `json:"reason" validate:"required"`
}
