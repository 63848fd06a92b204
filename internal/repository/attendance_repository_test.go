package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafa-hr/attendance-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "date", "check_in", "check_out", "minutes_late", "total_minutes_late",
		"status", "early_leave", "scan_method", "shift_start", "shift_end", "has_late_permission",
		"created_at", "updated_at",
	})
}

func TestAttendanceRepositoryCheckIn(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	checkIn := "08:20:00"

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendances").
		WithArgs(sqlmock.AnyArg(), "u1", date, checkIn, 5, models.AttendancePresent, "scan",
			"08:00:00", "17:00:00", false, sqlmock.AnyArg()).
		WillReturnRows(attendanceRows().AddRow(
			"a1", "u1", date, checkIn, nil, 5, 0,
			"present", false, "scan", "08:00:00", "17:00:00", false,
			time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(minutes_late\), 0\) FROM attendances`).
		WithArgs("u1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(25))
	mock.ExpectExec(`UPDATE attendances SET total_minutes_late`).
		WithArgs(25, "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stored, err := repo.CheckIn(context.Background(), CheckInParams{
		UserID:      "u1",
		Date:        date,
		CheckIn:     checkIn,
		MinutesLate: 5,
		ScanMethod:  "scan",
		ShiftStart:  "08:00:00",
		ShiftEnd:    "17:00:00",
		MonthStart:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		MonthEnd:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
	assert.Equal(t, 25, stored.TotalMinutesLate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCheckInLostRace(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendances").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CheckIn(context.Background(), CheckInParams{UserID: "u1", Date: time.Now()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCheckOut(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`UPDATE attendances SET check_out`).
		WithArgs("16:30:00", true, sqlmock.AnyArg(), "a1").
		WillReturnRows(attendanceRows().AddRow(
			"a1", "u1", date, "08:00:00", "16:30:00", 0, 0,
			"present", true, "scan", "08:00:00", "17:00:00", false,
			time.Now(), time.Now()))

	stored, err := repo.CheckOut(context.Background(), "a1", "16:30:00", true)
	require.NoError(t, err)
	assert.True(t, stored.EarlyLeave)
	require.NotNil(t, stored.CheckOut)
	assert.Equal(t, "16:30:00", *stored.CheckOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCheckOutAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`UPDATE attendances SET check_out`).WillReturnError(sql.ErrNoRows)

	_, err := repo.CheckOut(context.Background(), "a1", "16:30:00", false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAttendanceRepositoryBulkInsertSkipsConflicts(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	records := []models.Attendance{
		{UserID: "u1", Date: date, Status: models.AttendanceAbsent},
		{UserID: "u2", Date: date, Status: models.AttendanceAbsent},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendances").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("new-1"))
	// The second row collides on (user_id, date) and returns nothing.
	mock.ExpectQuery("INSERT INTO attendances").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	created, err := repo.BulkInsert(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertEmpty(t *testing.T) {
	db, _, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	created, err := repo.BulkInsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestAttendanceRepositoryExistsForDate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForDate(context.Background(), "u1", date)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAttendanceRepositoryDailyCounts(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late"}).AddRow(12, 3, 2))

	counts, err := repo.DailyCounts(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 12, counts.Present)
	assert.Equal(t, 2, counts.Late)
}

func TestAttendanceRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("DELETE FROM attendances").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
