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

const permissionColumns = `id, user_id, type, start_date, end_date, start_time, end_time, reason, status,
approved_by, created_at, updated_at`

// PermissionRepository handles persistence for permission requests.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// FindByID returns one permission request.
func (r *PermissionRepository) FindByID(ctx context.Context, id string) (*models.Permission, error) {
	query := fmt.Sprintf("SELECT %s FROM permissions WHERE id = $1", permissionColumns)
	var perm models.Permission
	if err := r.db.GetContext(ctx, &perm, query, id); err != nil {
		return nil, err
	}
	return &perm, nil
}

// Create inserts a pending permission request.
func (r *PermissionRepository) Create(ctx context.Context, perm *models.Permission) error {
	now := time.Now().UTC()
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	perm.CreatedAt = now
	perm.UpdatedAt = now
	query := `INSERT INTO permissions (id, user_id, type, start_date, end_date, start_time, end_time, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`
	_, err := r.db.ExecContext(ctx, query, perm.ID, perm.UserID, perm.Type, models.DayOf(perm.StartDate),
		models.DayOf(perm.EndDate), perm.StartTime, perm.EndTime, perm.Reason, perm.Status, now)
	if err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

// UpdateStatus flips a pending request to approved or rejected.
func (r *PermissionRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, approverID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
		status, approverID, time.Now().UTC(), id, models.RequestPending)
	if err != nil {
		return fmt.Errorf("update permission status: %w", err)
	}
	return ensureAffected(res)
}

// Update rewrites the editable fields of a still-pending request.
func (r *PermissionRepository) Update(ctx context.Context, perm *models.Permission) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET type = $1, start_date = $2, end_date = $3, start_time = $4, end_time = $5,
reason = $6, updated_at = $7 WHERE id = $8 AND status = $9`,
		perm.Type, models.DayOf(perm.StartDate), models.DayOf(perm.EndDate), perm.StartTime, perm.EndTime,
		perm.Reason, time.Now().UTC(), perm.ID, models.RequestPending)
	if err != nil {
		return fmt.Errorf("update permission: %w", err)
	}
	return ensureAffected(res)
}

// ExistsApproved reports whether an approved permission of the given type
// covers the date.
func (r *PermissionRepository) ExistsApproved(ctx context.Context, userID string, date time.Time, permType models.PermissionType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM permissions
WHERE user_id = $1 AND status = $2 AND type = $3 AND start_date <= $4 AND end_date >= $4)`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.RequestApproved, permType, models.DayOf(date)); err != nil {
		return false, fmt.Errorf("approved permission covering: %w", err)
	}
	return exists, nil
}

// ExistsPendingOverlap reports whether a pending request intersects the
// range, optionally excluding one request (for edits).
func (r *PermissionRepository) ExistsPendingOverlap(ctx context.Context, userID string, rng models.DateRange, excludeID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM permissions
WHERE user_id = $1 AND status = $2 AND start_date <= $4 AND end_date >= $3 AND ($5 = '' OR id != $5))`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.RequestPending, models.DayOf(rng.Start), models.DayOf(rng.End), excludeID); err != nil {
		return false, fmt.Errorf("pending permission overlap: %w", err)
	}
	return exists, nil
}

// CountIntersecting counts permissions whose range intersects the given one.
func (r *PermissionRepository) CountIntersecting(ctx context.Context, userID string, rng models.DateRange) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM permissions WHERE user_id = $1 AND start_date <= $3 AND end_date >= $2`
	if err := r.db.GetContext(ctx, &count, query, userID, models.DayOf(rng.Start), models.DayOf(rng.End)); err != nil {
		return 0, fmt.Errorf("count intersecting permissions: %w", err)
	}
	return count, nil
}

// List returns permissions matching the filter.
func (r *PermissionRepository) List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM permissions WHERE %s ORDER BY start_date DESC LIMIT %d OFFSET %d`,
		permissionColumns, whereClause, size, offset)
	var rows []models.Permission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list permissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM permissions WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count permissions: %w", err)
	}
	return rows, total, nil
}

// ListPending returns the most recent pending requests for the dashboard.
func (r *PermissionRepository) ListPending(ctx context.Context, limit int) ([]models.Permission, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf("SELECT %s FROM permissions WHERE status = $1 ORDER BY created_at DESC LIMIT %d", permissionColumns, limit)
	var rows []models.Permission
	if err := r.db.SelectContext(ctx, &rows, query, models.RequestPending); err != nil {
		return nil, fmt.Errorf("list pending permissions: %w", err)
	}
	return rows, nil
}

// Delete removes a permission request.
func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return ensureAffected(res)
}
