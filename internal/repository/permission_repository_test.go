package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafa-hr/attendance-api/internal/models"
)

func TestPermissionRepositoryExistsApproved(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewPermissionRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", models.RequestApproved, models.PermissionLate, date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsApproved(context.Background(), "u1", date, models.PermissionLate)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewPermissionRepository(db)

	mock.ExpectExec("UPDATE permissions SET status").
		WithArgs(models.RequestApproved, "manager", sqlmock.AnyArg(), "p1", models.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "p1", models.RequestApproved, "manager"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewPermissionRepository(db)

	start := "09:30:00"
	perm := &models.Permission{
		ID:        "p1",
		UserID:    "u1",
		Type:      models.PermissionLate,
		StartDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: &start,
		Reason:    "dentist",
	}
	mock.ExpectExec("UPDATE permissions SET type").
		WithArgs(models.PermissionLate, perm.StartDate, perm.EndDate, "09:30:00", nil,
			"dentist", sqlmock.AnyArg(), "p1", models.RequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), perm))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepositoryExistsPendingOverlapExcludes(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewPermissionRepository(db)

	rng := models.DateRange{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", models.RequestPending, rng.Start, rng.End, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsPendingOverlap(context.Background(), "u1", rng, "p1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepositoryCountIntersecting(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewPermissionRepository(db)

	rng := models.DateRange{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM permissions`).
		WithArgs("u1", rng.Start, rng.End).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountIntersecting(context.Background(), "u1", rng)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
