package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nafa-hr/attendance-api/internal/models"
)

const leaveColumns = `id, user_id, start_date, end_date, reason, status, approved_by, created_at, updated_at`

// LeaveRepository handles persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// FindByID returns one leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.Leave, error) {
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE id = $1", leaveColumns)
	var leave models.Leave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Create inserts a pending leave request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	now := time.Now().UTC()
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	leave.CreatedAt = now
	leave.UpdatedAt = now
	query := `INSERT INTO leaves (id, user_id, start_date, end_date, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	_, err := r.db.ExecContext(ctx, query, leave.ID, leave.UserID, models.DayOf(leave.StartDate),
		models.DayOf(leave.EndDate), leave.Reason, leave.Status, now)
	if err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// UpdateDates rewrites the period and reason of a pending request.
func (r *LeaveRepository) UpdateDates(ctx context.Context, id string, start, end time.Time, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leaves SET start_date = $1, end_date = $2, reason = $3, updated_at = $4 WHERE id = $5`,
		models.DayOf(start), models.DayOf(end), reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update leave dates: %w", err)
	}
	return ensureAffected(res)
}

// Approve flips the request to approved and debits the inclusive day count
// from the user's leave balance in the same transaction.
func (r *LeaveRepository) Approve(ctx context.Context, leave *models.Leave, approverID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve leave: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE leaves SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		models.RequestApproved, approverID, time.Now().UTC(), leave.ID, models.RequestPending)
	if err != nil {
		return fmt.Errorf("approve leave: %w", err)
	}
	if err := ensureAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET leave_balance = leave_balance - $1, updated_at = $2 WHERE id = $3`,
		leave.TotalDays(), time.Now().UTC(), leave.UserID); err != nil {
		return fmt.Errorf("debit leave balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve leave: %w", err)
	}
	committed = true
	return nil
}

// Reject flips the request to rejected without touching the balance.
func (r *LeaveRepository) Reject(ctx context.Context, id, approverID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE leaves SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		models.RequestRejected, approverID, time.Now().UTC(), id, models.RequestPending)
	if err != nil {
		return fmt.Errorf("reject leave: %w", err)
	}
	return ensureAffected(res)
}

// ExistsApprovedCovering reports whether an approved leave spans the date.
func (r *LeaveRepository) ExistsApprovedCovering(ctx context.Context, userID string, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM leaves
WHERE user_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3)`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.RequestApproved, models.DayOf(date)); err != nil {
		return false, fmt.Errorf("approved leave covering: %w", err)
	}
	return exists, nil
}

// ExistsOverlapping reports whether a leave in any of the given statuses
// intersects the range.
func (r *LeaveRepository) ExistsOverlapping(ctx context.Context, userID string, rng models.DateRange, statuses ...models.RequestStatus) (bool, error) {
	placeholders := make([]string, len(statuses))
	args := []interface{}{userID, models.DayOf(rng.Start), models.DayOf(rng.End)}
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, s)
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM leaves
WHERE user_id = $1 AND start_date <= $3 AND end_date >= $2 AND status IN (%s))`, strings.Join(placeholders, ", "))
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("overlapping leave: %w", err)
	}
	return exists, nil
}

// List returns leaves matching the filter, newest period first.
func (r *LeaveRepository) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Month != nil {
		where = append(where, fmt.Sprintf("start_date BETWEEN $%d AND $%d", len(args)+1, len(args)+2))
		args = append(args, models.DayOf(filter.Month.Start), models.DayOf(filter.Month.End))
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 5
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM leaves WHERE %s ORDER BY start_date DESC LIMIT %d OFFSET %d`,
		leaveColumns, whereClause, size, offset)
	var rows []models.Leave
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list leaves: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leaves WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leaves: %w", err)
	}
	return rows, total, nil
}

// ListByUser returns one user's leaves, newest first.
func (r *LeaveRepository) ListByUser(ctx context.Context, userID string) ([]models.Leave, error) {
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE user_id = $1 ORDER BY created_at DESC", leaveColumns)
	var rows []models.Leave
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list user leaves: %w", err)
	}
	return rows, nil
}

// ListPending returns the most recent pending requests for the dashboard.
func (r *LeaveRepository) ListPending(ctx context.Context, limit int) ([]models.Leave, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf("SELECT %s FROM leaves WHERE status = $1 ORDER BY created_at DESC LIMIT %d", leaveColumns, limit)
	var rows []models.Leave
	if err := r.db.SelectContext(ctx, &rows, query, models.RequestPending); err != nil {
		return nil, fmt.Errorf("list pending leaves: %w", err)
	}
	return rows, nil
}

// Delete removes a leave request.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	return ensureAffected(res)
}
