package dto

// CreateUserRequest provisions a new employee account. The initial
// password and PIN are flagged for change on first login.
type CreateUserRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone"`
	Password     string  `json:"password" validate:"required,min=8"`
	Pin          string  `json:"pin" validate:"omitempty,len=4,numeric"`
	Role         string  `json:"role" validate:"required"`
	DepartmentID *string `json:"department_id"`
	ShiftID      *string `json:"shift_id"`
	WorksWeekend bool    `json:"works_weekend"`
	LeaveBalance int     `json:"leave_balance" validate:"gte=0"`
}

// UpdateUserRequest edits an existing account's profile and assignment.
type UpdateUserRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone"`
	Role         string  `json:"role" validate:"required"`
	DepartmentID *string `json:"department_id"`
	ShiftID      *string `json:"shift_id"`
	WorksWeekend bool    `json:"works_weekend"`
	LeaveBalance int     `json:"leave_balance" validate:"gte=0"`
}
