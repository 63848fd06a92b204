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

const attendanceColumns = `id, user_id, date, check_in, check_out, minutes_late, total_minutes_late,
status, early_leave, scan_method, shift_start, shift_end, has_late_permission, created_at, updated_at`

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByUserAndDate returns the record for the unique (user, date) key.
func (r *AttendanceRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE user_id = $1 AND date = $2", attendanceColumns)
	var att models.Attendance
	if err := r.db.GetContext(ctx, &att, query, userID, models.DayOf(date)); err != nil {
		return nil, err
	}
	return &att, nil
}

// CheckInParams carries the values persisted by a live check-in.
type CheckInParams struct {
	UserID            string
	Date              time.Time
	CheckIn           string
	MinutesLate       int
	ScanMethod        string
	ShiftStart        string
	ShiftEnd          string
	HasLatePermission bool
	MonthStart        time.Time
	MonthEnd          time.Time
}

// CheckIn atomically records a check-in and recomputes the monthly lateness
// total in one transaction. The upsert is guarded by the (user_id, date)
// unique constraint: when a check-in already exists the conditional update
// matches no row and sql.ErrNoRows is returned, so concurrent duplicates
// lose cleanly and nothing is mutated.
func (r *AttendanceRepository) CheckIn(ctx context.Context, p CheckInParams) (*models.Attendance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin check-in: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO attendances (id, user_id, date, check_in, minutes_late, status, scan_method,
shift_start, shift_end, has_late_permission, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (user_id, date) DO UPDATE SET
check_in = EXCLUDED.check_in,
minutes_late = EXCLUDED.minutes_late,
status = EXCLUDED.status,
scan_method = EXCLUDED.scan_method,
updated_at = EXCLUDED.updated_at
WHERE attendances.check_in IS NULL
RETURNING %s`, attendanceColumns)

	var stored models.Attendance
	err = tx.GetContext(ctx, &stored, query,
		uuid.NewString(), p.UserID, models.DayOf(p.Date), p.CheckIn, p.MinutesLate,
		models.AttendancePresent, p.ScanMethod, p.ShiftStart, p.ShiftEnd, p.HasLatePermission, now)
	if err != nil {
		return nil, err
	}

	var total int
	sumQuery := `SELECT COALESCE(SUM(minutes_late), 0) FROM attendances WHERE user_id = $1 AND date BETWEEN $2 AND $3`
	if err := tx.GetContext(ctx, &total, sumQuery, p.UserID, models.DayOf(p.MonthStart), models.DayOf(p.MonthEnd)); err != nil {
		return nil, fmt.Errorf("sum monthly lateness: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE attendances SET total_minutes_late = $1 WHERE id = $2`, total, stored.ID); err != nil {
		return nil, fmt.Errorf("update monthly lateness total: %w", err)
	}
	stored.TotalMinutesLate = total

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check-in: %w", err)
	}
	committed = true
	return &stored, nil
}

// CheckOut sets check-out and the early-leave flag. The update only matches
// an un-closed record; sql.ErrNoRows signals a check-out already present.
// The monthly total is deliberately left as set at check-in time.
func (r *AttendanceRepository) CheckOut(ctx context.Context, attendanceID, checkOut string, earlyLeave bool) (*models.Attendance, error) {
	query := fmt.Sprintf(`UPDATE attendances SET check_out = $1, early_leave = $2, updated_at = $3
WHERE id = $4 AND check_out IS NULL
RETURNING %s`, attendanceColumns)
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, checkOut, earlyLeave, time.Now().UTC(), attendanceID); err != nil {
		return nil, err
	}
	return &stored, nil
}

// BulkInsert materializes auto-filled records, skipping (user, date) keys
// that already exist. Returns the number of rows actually created.
func (r *AttendanceRepository) BulkInsert(ctx context.Context, records []models.Attendance) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO attendances (id, user_id, date, check_in, check_out, minutes_late, status,
shift_start, shift_end, has_late_permission, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (user_id, date) DO NOTHING RETURNING id`
	now := time.Now().UTC()
	created := 0
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		var insertedID string
		err := tx.QueryRowxContext(ctx, query, rec.ID, rec.UserID, models.DayOf(rec.Date), rec.CheckIn, rec.CheckOut,
			rec.MinutesLate, rec.Status, rec.ShiftStart, rec.ShiftEnd, rec.HasLatePermission, now).Scan(&insertedID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return 0, fmt.Errorf("bulk insert attendance: %w", err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk attendance: %w", err)
	}
	committed = true
	return created, nil
}

// MarkAbsent force-upserts an absent record for the given user and date. It
// is the manual correction path and bypasses the status resolver.
func (r *AttendanceRepository) MarkAbsent(ctx context.Context, userID string, date time.Time) (*models.Attendance, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO attendances (id, user_id, date, minutes_late, status, created_at, updated_at)
VALUES ($1, $2, $3, 0, $4, $5, $5)
ON CONFLICT (user_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
RETURNING %s`, attendanceColumns)
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query, uuid.NewString(), userID, models.DayOf(date), models.AttendanceAbsent, now); err != nil {
		return nil, fmt.Errorf("mark absent: %w", err)
	}
	return &stored, nil
}

// List returns attendance rows matching the filter, newest first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := `FROM attendances a JOIN users u ON u.id = a.user_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("a.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, models.DayOf(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, models.DayOf(*filter.DateTo))
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

	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.date, a.check_in, a.check_out, a.minutes_late, a.total_minutes_late,
a.status, a.early_leave, a.scan_method, a.shift_start, a.shift_end, a.has_late_permission, a.created_at, a.updated_at,
u.first_name, u.last_name, u.role
%s WHERE %s ORDER BY a.date DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendances: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendances: %w", err)
	}
	return rows, total, nil
}

// ListForRange returns one user's rows inside an inclusive date range.
func (r *AttendanceRepository) ListForRange(ctx context.Context, userID string, rng models.DateRange) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE user_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date DESC`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, userID, models.DayOf(rng.Start), models.DayOf(rng.End)); err != nil {
		return nil, fmt.Errorf("list attendances for range: %w", err)
	}
	return rows, nil
}

// ListAllForRange returns every user's rows inside an inclusive date range.
func (r *AttendanceRepository) ListAllForRange(ctx context.Context, rng models.DateRange) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE date BETWEEN $1 AND $2 ORDER BY date`, attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, models.DayOf(rng.Start), models.DayOf(rng.End)); err != nil {
		return nil, fmt.Errorf("list all attendances for range: %w", err)
	}
	return rows, nil
}

// ExistsForDate reports whether a record exists for the (user, date) key.
func (r *AttendanceRepository) ExistsForDate(ctx context.Context, userID string, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM attendances WHERE user_id = $1 AND date = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, models.DayOf(date)); err != nil {
		return false, fmt.Errorf("attendance exists: %w", err)
	}
	return exists, nil
}

// DailyCounts aggregates the present/absent/late counters for one date.
func (r *AttendanceRepository) DailyCounts(ctx context.Context, date time.Time) (*models.DailyCounts, error) {
	query := `SELECT
COUNT(*) FILTER (WHERE status = 'present') AS present,
COUNT(*) FILTER (WHERE status = 'absent') AS absent,
COUNT(*) FILTER (WHERE minutes_late > 0) AS late
FROM attendances WHERE date = $1`
	var counts models.DailyCounts
	if err := r.db.GetContext(ctx, &counts, query, models.DayOf(date)); err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	return &counts, nil
}

// LatestForDate returns the most recent records for one date.
func (r *AttendanceRepository) LatestForDate(ctx context.Context, date time.Time, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.date, a.check_in, a.check_out, a.minutes_late, a.total_minutes_late,
a.status, a.early_leave, a.scan_method, a.shift_start, a.shift_end, a.has_late_permission, a.created_at, a.updated_at,
u.first_name, u.last_name, u.role
FROM attendances a JOIN users u ON u.id = a.user_id
WHERE a.date = $1 ORDER BY a.created_at DESC LIMIT %d`, limit)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, models.DayOf(date)); err != nil {
		return nil, fmt.Errorf("latest attendances: %w", err)
	}
	return rows, nil
}

// Delete removes a record. Administrative use only.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
