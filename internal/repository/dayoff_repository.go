package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nafa-hr/attendance-api/internal/models"
)

const dayOffColumns = `id, user_id, day_off_date, created_by, created_at, updated_at`

// DayOffRepository handles persistence for weekly day-offs.
type DayOffRepository struct {
	db *sqlx.DB
}

// NewDayOffRepository constructs the repository.
func NewDayOffRepository(db *sqlx.DB) *DayOffRepository {
	return &DayOffRepository{db: db}
}

// FindByID returns one day-off entry.
func (r *DayOffRepository) FindByID(ctx context.Context, id string) (*models.WeeklyDayOff, error) {
	query := fmt.Sprintf("SELECT %s FROM user_weekly_day_offs WHERE id = $1", dayOffColumns)
	var dayOff models.WeeklyDayOff
	if err := r.db.GetContext(ctx, &dayOff, query, id); err != nil {
		return nil, err
	}
	return &dayOff, nil
}

// Create inserts a day-off entry.
func (r *DayOffRepository) Create(ctx context.Context, dayOff *models.WeeklyDayOff) error {
	now := time.Now().UTC()
	if dayOff.ID == "" {
		dayOff.ID = uuid.NewString()
	}
	dayOff.CreatedAt = now
	dayOff.UpdatedAt = now
	query := `INSERT INTO user_weekly_day_offs (id, user_id, day_off_date, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.db.ExecContext(ctx, query, dayOff.ID, dayOff.UserID, models.DayOf(dayOff.DayOffDate), dayOff.CreatedBy, now)
	if err != nil {
		return fmt.Errorf("create day off: %w", err)
	}
	return nil
}

// UpdateDate moves a day-off to another date.
func (r *DayOffRepository) UpdateDate(ctx context.Context, id string, date time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_weekly_day_offs SET day_off_date = $1, updated_at = $2 WHERE id = $3`,
		models.DayOf(date), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update day off: %w", err)
	}
	return ensureAffected(res)
}

// ExistsOnDate reports whether the user has a day-off on exactly that date.
func (r *DayOffRepository) ExistsOnDate(ctx context.Context, userID string, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM user_weekly_day_offs WHERE user_id = $1 AND day_off_date = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.DayOf(date)); err != nil {
		return false, fmt.Errorf("day off exists: %w", err)
	}
	return exists, nil
}

// ExistsInWeek reports whether the user already has a day-off inside the
// given week, optionally excluding one entry (for moves).
func (r *DayOffRepository) ExistsInWeek(ctx context.Context, userID string, week models.DateRange, excludeID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM user_weekly_day_offs
WHERE user_id = $1 AND day_off_date BETWEEN $2 AND $3 AND ($4 = '' OR id != $4))`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.DayOf(week.Start), models.DayOf(week.End), excludeID); err != nil {
		return false, fmt.Errorf("day off in week: %w", err)
	}
	return exists, nil
}

// ListBetween returns all day-offs inside the range, earliest first.
func (r *DayOffRepository) ListBetween(ctx context.Context, rng models.DateRange) ([]models.WeeklyDayOff, error) {
	query := fmt.Sprintf("SELECT %s FROM user_weekly_day_offs WHERE day_off_date BETWEEN $1 AND $2 ORDER BY day_off_date", dayOffColumns)
	var rows []models.WeeklyDayOff
	if err := r.db.SelectContext(ctx, &rows, query, models.DayOf(rng.Start), models.DayOf(rng.End)); err != nil {
		return nil, fmt.Errorf("list day offs: %w", err)
	}
	return rows, nil
}

// Delete removes a day-off entry.
func (r *DayOffRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_weekly_day_offs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete day off: %w", err)
	}
	return ensureAffected(res)
}
