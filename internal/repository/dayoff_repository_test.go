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

func TestDayOffRepositoryExistsInWeek(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	week := models.WeekRange(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", week.Start, week.End, "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsInWeek(context.Background(), "u1", week, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayOffRepositoryExistsOnDate(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1", date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsOnDate(context.Background(), "u1", date)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDayOffRepositoryListBetween(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewDayOffRepository(db)

	week := models.WeekRange(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	rows := sqlmock.NewRows([]string{"id", "user_id", "day_off_date", "created_by", "created_at", "updated_at"}).
		AddRow("d1", "u1", week.Start.AddDate(0, 0, 2), "admin", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM user_weekly_day_offs").
		WithArgs(week.Start, week.End).
		WillReturnRows(rows)

	dayOffs, err := repo.ListBetween(context.Background(), week)
	require.NoError(t, err)
	require.Len(t, dayOffs, 1)
	assert.Equal(t, "u1", dayOffs[0].UserID)
}
