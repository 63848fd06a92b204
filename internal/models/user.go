package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RoleRH       UserRole = "rh"
	RoleAdmin    UserRole = "admin"
	RoleVigile   UserRole = "vigile"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleRH, RoleAdmin, RoleVigile:
		return true
	}
	return false
}

// CanApprove reports whether the role may approve leave and permission requests.
func (r UserRole) CanApprove() bool {
	return r == RoleManager || r == RoleRH || r == RoleAdmin
}

// CanManageDayOffs reports whether the role may create or move weekly day-offs.
func (r UserRole) CanManageDayOffs() bool {
	return r == RoleManager || r == RoleRH || r == RoleAdmin
}

// User represents an employee account stored in the users table.
type User struct {
	ID                 string    `db:"id" json:"id"`
	FirstName          string    `db:"first_name" json:"first_name"`
	LastName           string    `db:"last_name" json:"last_name"`
	Email              string    `db:"email" json:"email"`
	Phone              string    `db:"phone" json:"phone"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	PinHash            string    `db:"pin_hash" json:"-"`
	Role               UserRole  `db:"role" json:"role"`
	DepartmentID       *string   `db:"department_id" json:"department_id,omitempty"`
	ShiftID            *string   `db:"shift_id" json:"shift_id,omitempty"`
	WorksWeekend       bool      `db:"works_weekend" json:"works_weekend"`
	LeaveBalance       int       `db:"leave_balance" json:"leave_balance"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	MustChangePin      bool      `db:"must_change_pin" json:"must_change_pin"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`

	Shift *Shift `db:"-" json:"shift,omitempty"`
}

// FullName joins first and last name for reporting output.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	DepartmentID string
	ShiftType    string
	Search       string
	Page         int
	PageSize     int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
