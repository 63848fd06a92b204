package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type stubStatsCache struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubStatsCache) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubStatsCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubStatsCache) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	return nil
}

type mockHistoryReader struct {
	byUser map[string][]models.Attendance
	all    []models.Attendance
}

func (m *mockHistoryReader) ListForRange(_ context.Context, userID string, _ models.DateRange) ([]models.Attendance, error) {
	return m.byUser[userID], nil
}

func (m *mockHistoryReader) ListAllForRange(_ context.Context, _ models.DateRange) ([]models.Attendance, error) {
	return m.all, nil
}

type mockAllUsers struct {
	users []models.User
}

func (m *mockAllUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockAllUsers) ListAll(_ context.Context) ([]models.User, error) {
	return m.users, nil
}

type mockPermissionCounter struct {
	count int
}

func (m *mockPermissionCounter) CountIntersecting(_ context.Context, _ string, _ models.DateRange) (int, error) {
	return m.count, nil
}

type mockDepartmentNamer struct {
	names map[string]string
}

func (m *mockDepartmentNamer) NameByID(_ context.Context, id string) (*string, error) {
	name, ok := m.names[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &name, nil
}

func statsUser(id string) models.User {
	user := *morningUser()
	user.ID = id
	user.FirstName = "Ada"
	user.LastName = "Diallo"
	return user
}

func presentRow(userID string, day int, checkIn, checkOut string, minutesLate int) models.Attendance {
	return models.Attendance{
		UserID:      userID,
		Date:        time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		CheckIn:     &checkIn,
		CheckOut:    &checkOut,
		MinutesLate: minutesLate,
		Status:      models.AttendancePresent,
	}
}

func TestUserMonthlyStats(t *testing.T) {
	rows := []models.Attendance{
		presentRow("u1", 3, "08:00:00", "17:00:00", 0),
		presentRow("u1", 4, "08:30:00", "17:00:00", 15),
		{UserID: "u1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), Status: models.AttendanceAbsent},
		{UserID: "u1", Date: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), Status: models.AttendanceOnLeave},
	}
	svc := NewStatsService(
		&mockHistoryReader{byUser: map[string][]models.Attendance{"u1": rows}},
		&mockAllUsers{users: []models.User{statsUser("u1")}},
		&mockPermissionCounter{count: 2},
		&mockDepartmentNamer{},
		testWindowResolver(),
		nil,
		time.Minute,
		zap.NewNop(),
	)

	stats, err := svc.UserMonthlyStats(context.Background(), "u1", 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, "Ada Diallo", stats.Name)
	assert.Equal(t, "2025-03", stats.Month)
	// 9h on the 3rd plus 8.5h on the 4th.
	assert.Equal(t, 17.5, stats.PresenceHours)
	assert.Equal(t, 0.25, stats.LateHours)
	// Both the absent and the on_leave row lack a check-in.
	assert.Equal(t, 2, stats.Absences)
	assert.Equal(t, 2, stats.PermissionsCount)
}

func TestUserMonthlyStatsAbsenceIsMissingCheckIn(t *testing.T) {
	// Every materialized row without a check-in counts as an absence,
	// regardless of its resolved status.
	day := func(d int, status models.AttendanceStatus) models.Attendance {
		return models.Attendance{UserID: "u1", Date: time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC), Status: status}
	}
	rows := []models.Attendance{
		day(3, models.AttendanceAbsent),
		day(4, models.AttendanceOnLeave),
		day(5, models.AttendanceDayOff),
	}
	svc := NewStatsService(
		&mockHistoryReader{byUser: map[string][]models.Attendance{"u1": rows}},
		&mockAllUsers{users: []models.User{statsUser("u1")}},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		nil,
		time.Minute,
		zap.NewNop(),
	)

	stats, err := svc.UserMonthlyStats(context.Background(), "u1", 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Absences)
	assert.Zero(t, stats.PresenceHours)
}

func TestUserMonthlyStatsCaching(t *testing.T) {
	cache := &stubStatsCache{}
	history := &mockHistoryReader{byUser: map[string][]models.Attendance{"u1": {presentRow("u1", 3, "08:00:00", "17:00:00", 0)}}}
	svc := NewStatsService(
		history,
		&mockAllUsers{users: []models.User{statsUser("u1")}},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		cache,
		time.Minute,
		zap.NewNop(),
	)

	first, err := svc.UserMonthlyStats(context.Background(), "u1", 2025, time.March)
	require.NoError(t, err)

	// A second call is served from the cache even after the source changes.
	history.byUser["u1"] = nil
	second, err := svc.UserMonthlyStats(context.Background(), "u1", 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, first.PresenceHours, second.PresenceHours)
}

func TestInvalidateMonthPatterns(t *testing.T) {
	cache := &stubStatsCache{}
	svc := NewStatsService(
		&mockHistoryReader{},
		&mockAllUsers{},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		cache,
		time.Minute,
		zap.NewNop(),
	)

	svc.InvalidateMonth(context.Background(), "u1", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.Len(t, cache.deleted, 3)
	assert.Contains(t, cache.deleted, "stats:user:u1:2025-03")
	assert.Contains(t, cache.deleted, "stats:counts:2025-03")
	assert.Contains(t, cache.deleted, "stats:org:2025-03")
}

func TestAllUsersMonthlyCounts(t *testing.T) {
	rows := []models.Attendance{
		presentRow("u1", 3, "08:00:00", "17:00:00", 0),
		presentRow("u1", 4, "08:30:00", "17:00:00", 15),
		{UserID: "u1", Date: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), Status: models.AttendanceAbsent},
		{UserID: "u1", Date: time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), Status: models.AttendancePermission},
	}
	svc := NewStatsService(
		&mockHistoryReader{all: rows},
		&mockAllUsers{users: []models.User{statsUser("u1"), statsUser("u2")}},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		nil,
		time.Minute,
		zap.NewNop(),
	)

	counts, err := svc.AllUsersMonthlyCounts(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 2, counts[0].PresentDays)
	assert.Equal(t, 1, counts[0].LateDays)
	assert.Equal(t, 1, counts[0].AbsentDays)
	assert.Equal(t, 1, counts[0].PermissionDays)
	assert.Zero(t, counts[1].PresentDays)
}

func TestOrganizationSummaryChargesMissingDays(t *testing.T) {
	// One present day; every other scheduled weekday charges the full shift.
	rows := []models.Attendance{presentRow("u1", 3, "08:00:00", "17:00:00", 0)}
	svc := NewStatsService(
		&mockHistoryReader{all: rows},
		&mockAllUsers{users: []models.User{statsUser("u1")}},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		nil,
		time.Minute,
		zap.NewNop(),
	)

	report, err := svc.OrganizationMonthlySummary(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Len(t, report.Data, 1)
	entry := report.Data[0]
	assert.Equal(t, 9.0, entry.PresentHours)
	// March 2025 has 21 weekdays; 20 of them have no row, 9h shift each.
	assert.Equal(t, 180.0, entry.AbsentHours)
}

func TestExportMonthlyCounts(t *testing.T) {
	svc := NewStatsService(
		&mockHistoryReader{all: []models.Attendance{presentRow("u1", 3, "08:00:00", "17:00:00", 0)}},
		&mockAllUsers{users: []models.User{statsUser("u1")}},
		&mockPermissionCounter{},
		&mockDepartmentNamer{},
		testWindowResolver(),
		nil,
		time.Minute,
		zap.NewNop(),
	)

	payload, filename, err := svc.ExportMonthlyCounts(context.Background(), 2025, time.March, "csv")
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-03.csv", filename)
	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Name,Role,Department"))
	assert.Contains(t, content, "Ada Diallo")

	payload, filename, err = svc.ExportMonthlyCounts(context.Background(), 2025, time.March, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "attendance-2025-03.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))

	_, _, err = svc.ExportMonthlyCounts(context.Background(), 2025, time.March, "xlsx")
	assert.Error(t, err)
}
