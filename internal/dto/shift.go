package dto

// WorkScheduleInput is one per-weekday override inside a shift payload.
type WorkScheduleInput struct {
	Day          string `json:"day" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	IsWorkingDay bool   `json:"is_working_day"`
}

// ShiftRequest creates or updates a shift and its weekday overrides.
type ShiftRequest struct {
	Name          string              `json:"name" validate:"required"`
	Label         string              `json:"label"`
	Type          string              `json:"type" validate:"required"`
	StartTime     string              `json:"start_time" validate:"required"`
	EndTime       string              `json:"end_time" validate:"required"`
	IsActive      bool                `json:"is_active"`
	WorkSchedules []WorkScheduleInput `json:"work_schedules" validate:"dive"`
}

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}
