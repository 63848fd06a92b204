package models

import "time"

// WeeklyDayOff marks a single date as a rest day for a user. At most one may
// exist per (user, ISO week).
type WeeklyDayOff struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	DayOffDate time.Time `db:"day_off_date" json:"day_off_date"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
