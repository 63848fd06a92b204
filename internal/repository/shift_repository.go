package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nafa-hr/attendance-api/internal/models"
)

const shiftColumns = `id, name, label, type, start_time, end_time, is_active, created_at, updated_at`

// ShiftRepository handles persistence for shifts and their schedules.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// FindByID loads a shift with its per-weekday schedules.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	query := fmt.Sprintf("SELECT %s FROM shifts WHERE id = $1", shiftColumns)
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	scheduleQuery := `SELECT id, shift_id, day, start_time, end_time, is_working_day FROM workschedules WHERE shift_id = $1`
	if err := r.db.SelectContext(ctx, &shift.WorkSchedules, scheduleQuery, id); err != nil {
		return nil, fmt.Errorf("load work schedules: %w", err)
	}
	return &shift, nil
}

// List returns all shifts.
func (r *ShiftRepository) List(ctx context.Context) ([]models.Shift, error) {
	query := fmt.Sprintf("SELECT %s FROM shifts ORDER BY name", shiftColumns)
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// Create inserts a shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	now := time.Now().UTC()
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	shift.CreatedAt = now
	shift.UpdatedAt = now
	query := `INSERT INTO shifts (id, name, label, type, start_time, end_time, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err := r.db.ExecContext(ctx, query, shift.ID, shift.Name, shift.Label, shift.Type,
		shift.StartTime, shift.EndTime, shift.IsActive, now)
	if err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// Update persists shift fields.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	query := `UPDATE shifts SET name = $1, label = $2, type = $3, start_time = $4, end_time = $5, is_active = $6,
updated_at = $7 WHERE id = $8`
	res, err := r.db.ExecContext(ctx, query, shift.Name, shift.Label, shift.Type, shift.StartTime,
		shift.EndTime, shift.IsActive, shift.UpdatedAt, shift.ID)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return ensureAffected(res)
}

// ReplaceSchedules swaps the full set of per-weekday overrides for a shift.
func (r *ShiftRepository) ReplaceSchedules(ctx context.Context, shiftID string, schedules []models.WorkSchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedules: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workschedules WHERE shift_id = $1`, shiftID); err != nil {
		return fmt.Errorf("clear work schedules: %w", err)
	}
	query := `INSERT INTO workschedules (id, shift_id, day, start_time, end_time, is_working_day)
VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range schedules {
		s := &schedules[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, s.ID, shiftID, s.Day, s.StartTime, s.EndTime, s.IsWorkingDay); err != nil {
			return fmt.Errorf("insert work schedule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedules: %w", err)
	}
	committed = true
	return nil
}

// Delete removes a shift.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	return ensureAffected(res)
}
