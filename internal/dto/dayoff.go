package dto

// CreateDayOffRequest assigns a weekly day off to a user.
type CreateDayOffRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	DayOffDate string `json:"day_off_date" validate:"required"`
}

// UpdateDayOffRequest moves an existing weekly day off to another date.
type UpdateDayOffRequest struct {
	DayOffDate string `json:"day_off_date" validate:"required"`
}
