package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type mockDayOffStore struct {
	dayOffs    map[string]*models.WeeklyDayOff
	takenWeeks []models.DateRange
	created    *models.WeeklyDayOff
	listed     *models.DateRange
}

func (m *mockDayOffStore) FindByID(_ context.Context, id string) (*models.WeeklyDayOff, error) {
	dayOff, ok := m.dayOffs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return dayOff, nil
}

func (m *mockDayOffStore) Create(_ context.Context, dayOff *models.WeeklyDayOff) error {
	dayOff.ID = "d-new"
	m.created = dayOff
	return nil
}

func (m *mockDayOffStore) UpdateDate(_ context.Context, id string, date time.Time) error {
	dayOff, ok := m.dayOffs[id]
	if !ok {
		return sql.ErrNoRows
	}
	dayOff.DayOffDate = date
	return nil
}

func (m *mockDayOffStore) ExistsInWeek(_ context.Context, _ string, week models.DateRange, excludeID string) (bool, error) {
	for _, taken := range m.takenWeeks {
		if taken.Start.Equal(week.Start) && excludeID == "" {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDayOffStore) ListBetween(_ context.Context, rng models.DateRange) ([]models.WeeklyDayOff, error) {
	m.listed = &rng
	return nil, nil
}

func (m *mockDayOffStore) Delete(_ context.Context, _ string) error {
	return nil
}

func TestDayOffCreate(t *testing.T) {
	store := &mockDayOffStore{}
	svc := NewDayOffService(store, nil, zap.NewNop())

	dayOff, err := svc.Create(context.Background(), "admin", dto.CreateDayOffRequest{
		UserID:     "u1",
		DayOffDate: "2025-03-12",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", dayOff.UserID)
	assert.Equal(t, "admin", dayOff.CreatedBy)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), dayOff.DayOffDate)
}

func TestDayOffCreateWeekConflict(t *testing.T) {
	// 2025-03-12 is a Wednesday; its ISO week starts Monday 2025-03-10.
	week := models.WeekRange(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	store := &mockDayOffStore{takenWeeks: []models.DateRange{week}}
	svc := NewDayOffService(store, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "admin", dto.CreateDayOffRequest{
		UserID:     "u1",
		DayOffDate: "2025-03-14",
	})
	assert.ErrorIs(t, err, appErrors.ErrDayOffWeekConflict)

	// The following Monday opens a fresh week.
	_, err = svc.Create(context.Background(), "admin", dto.CreateDayOffRequest{
		UserID:     "u1",
		DayOffDate: "2025-03-17",
	})
	assert.NoError(t, err)
}

func TestDayOffUpdateWithinSameWeek(t *testing.T) {
	existing := &models.WeeklyDayOff{
		ID:         "d1",
		UserID:     "u1",
		DayOffDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	week := models.WeekRange(existing.DayOffDate)
	store := &mockDayOffStore{
		dayOffs:    map[string]*models.WeeklyDayOff{"d1": existing},
		takenWeeks: []models.DateRange{week},
	}
	svc := NewDayOffService(store, nil, zap.NewNop())

	// Moving inside the same week excludes the row itself from the check.
	updated, err := svc.Update(context.Background(), "d1", dto.UpdateDayOffRequest{DayOffDate: "2025-03-14"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), updated.DayOffDate)
}

func TestDayOffListForWeek(t *testing.T) {
	store := &mockDayOffStore{}
	svc := NewDayOffService(store, nil, zap.NewNop())

	_, err := svc.ListForWeek(context.Background(), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, store.listed)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), store.listed.Start)
	assert.Equal(t, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC), store.listed.End)
}

func TestDayOffInvalidDate(t *testing.T) {
	svc := NewDayOffService(&mockDayOffStore{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "admin", dto.CreateDayOffRequest{
		UserID:     "u1",
		DayOffDate: "12/03/2025",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
