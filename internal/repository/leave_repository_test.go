package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafa-hr/attendance-api/internal/models"
)

func TestLeaveRepositoryApproveDebitsBalance(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	leave := &models.Leave{
		ID:        "l1",
		UserID:    "u1",
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		Status:    models.RequestPending,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leaves SET status").
		WithArgs(models.RequestApproved, "admin", sqlmock.AnyArg(), "l1", models.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET leave_balance").
		WithArgs(3, sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Approve(context.Background(), leave, "admin"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryApproveLostRace(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	leave := &models.Leave{ID: "l1", UserID: "u1", Status: models.RequestPending}

	// The conditional update matches nothing once another approver won.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leaves SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), leave, "admin")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO leaves").
		WithArgs(sqlmock.AnyArg(), "u1",
			time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			"family event", models.RequestPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	leave := &models.Leave{
		UserID:    "u1",
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		Reason:    "family event",
		Status:    models.RequestPending,
	}
	require.NoError(t, repo.Create(context.Background(), leave))
	assert.NotEmpty(t, leave.ID)
}

func TestLeaveRepositoryExistsOverlapping(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	rng := models.DateRange{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", rng.Start, rng.End, models.RequestPending).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsOverlapping(context.Background(), "u1", rng, models.RequestPending)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLeaveRepositoryExistsApprovedCovering(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", models.RequestApproved, date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	covered, err := repo.ExistsApprovedCovering(context.Background(), "u1", date)
	require.NoError(t, err)
	assert.False(t, covered)
}

func TestLeaveRepositoryRejectAlreadyProcessed(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("UPDATE leaves SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reject(context.Background(), "l1", "admin")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
