package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nafa-hr/attendance-api/internal/models"
)

const userColumns = `id, first_name, last_name, email, phone, password_hash, pin_hash, role, department_id,
shift_id, works_weekend, leave_balance, must_change_password, must_change_pin, created_at, updated_at`

// UserRepository handles persistence for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user together with the assigned shift and its schedules.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	if err := r.attachShift(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by email for authentication.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(email)); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users matching the filter.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	base := `FROM users u LEFT JOIN shifts s ON s.id = u.shift_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Role != nil {
		where = append(where, fmt.Sprintf("u.role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.DepartmentID != "" {
		where = append(where, fmt.Sprintf("u.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.ShiftType != "" {
		where = append(where, fmt.Sprintf("s.type = $%d", len(args)+1))
		args = append(args, filter.ShiftType)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.password_hash, u.pin_hash,
u.role, u.department_id, u.shift_id, u.works_weekend, u.leave_balance, u.must_change_password, u.must_change_pin,
u.created_at, u.updated_at
%s WHERE %s ORDER BY u.last_name, u.first_name LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// ListByShiftType returns users assigned to a shift of the given type,
// shifts and schedules attached. Users without a shift are not returned.
func (r *UserRepository) ListByShiftType(ctx context.Context, shiftType models.ShiftType) ([]models.User, error) {
	query := `SELECT u.id, u.first_name, u.last_name, u.email, u.phone, u.password_hash, u.pin_hash,
u.role, u.department_id, u.shift_id, u.works_weekend, u.leave_balance, u.must_change_password, u.must_change_pin,
u.created_at, u.updated_at
FROM users u JOIN shifts s ON s.id = u.shift_id
WHERE s.type = $1 AND s.is_active`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, shiftType); err != nil {
		return nil, fmt.Errorf("list users by shift type: %w", err)
	}
	for i := range users {
		if err := r.attachShift(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// ListAll returns every user with shift and schedules attached, for the
// organisation-wide monthly reports.
func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY last_name, first_name", userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list all users: %w", err)
	}
	for i := range users {
		if err := r.attachShift(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	query := `INSERT INTO users (id, first_name, last_name, email, phone, password_hash, pin_hash, role,
department_id, shift_id, works_weekend, leave_balance, must_change_password, must_change_pin, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.FirstName, user.LastName, strings.ToLower(user.Email),
		user.Phone, user.PasswordHash, user.PinHash, user.Role, user.DepartmentID, user.ShiftID,
		user.WorksWeekend, user.LeaveBalance, user.MustChangePassword, user.MustChangePin, now)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `UPDATE users SET first_name = $1, last_name = $2, email = $3, phone = $4, role = $5,
department_id = $6, shift_id = $7, works_weekend = $8, leave_balance = $9, updated_at = $10
WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, strings.ToLower(user.Email),
		user.Phone, user.Role, user.DepartmentID, user.ShiftID, user.WorksWeekend, user.LeaveBalance,
		user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return ensureAffected(res)
}

// UpdatePassword stores a new password hash and clears the change flag.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, must_change_password = false, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return ensureAffected(res)
}

// UpdatePin stores a new PIN hash and clears the change flag.
func (r *UserRepository) UpdatePin(ctx context.Context, id, pinHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET pin_hash = $1, must_change_pin = false, updated_at = $2 WHERE id = $3`,
		pinHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update pin: %w", err)
	}
	return ensureAffected(res)
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return ensureAffected(res)
}

func (r *UserRepository) attachShift(ctx context.Context, user *models.User) error {
	if user.ShiftID == nil {
		return nil
	}
	var shift models.Shift
	query := `SELECT id, name, label, type, start_time, end_time, is_active, created_at, updated_at FROM shifts WHERE id = $1`
	if err := r.db.GetContext(ctx, &shift, query, *user.ShiftID); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("load shift: %w", err)
	}
	scheduleQuery := `SELECT id, shift_id, day, start_time, end_time, is_working_day FROM workschedules WHERE shift_id = $1`
	if err := r.db.SelectContext(ctx, &shift.WorkSchedules, scheduleQuery, shift.ID); err != nil {
		return fmt.Errorf("load work schedules: %w", err)
	}
	user.Shift = &shift
	return nil
}

func ensureAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
