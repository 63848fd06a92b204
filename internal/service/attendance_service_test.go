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
	"github.com/nafa-hr/attendance-api/internal/repository"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type mockAttendanceStore struct {
	existing      *models.Attendance
	findErr       error
	checkInParams *repository.CheckInParams
	checkInErr    error
	checkOutID    string
	checkOutTime  string
	checkOutEarly bool
	listRows      []models.AttendanceRecord
	listTotal     int
	rangeRows     []models.Attendance
	counts        *models.DailyCounts
	latest        []models.AttendanceRecord
	deleteErr     error
}

func (m *mockAttendanceStore) FindByUserAndDate(_ context.Context, _ string, _ time.Time) (*models.Attendance, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.existing == nil {
		return nil, sql.ErrNoRows
	}
	return m.existing, nil
}

func (m *mockAttendanceStore) CheckIn(_ context.Context, p repository.CheckInParams) (*models.Attendance, error) {
	if m.checkInErr != nil {
		return nil, m.checkInErr
	}
	m.checkInParams = &p
	checkIn := p.CheckIn
	return &models.Attendance{
		ID:          "a1",
		UserID:      p.UserID,
		Date:        p.Date,
		CheckIn:     &checkIn,
		MinutesLate: p.MinutesLate,
		Status:      models.AttendancePresent,
		ScanMethod:  p.ScanMethod,
	}, nil
}

func (m *mockAttendanceStore) CheckOut(_ context.Context, id, checkOut string, earlyLeave bool) (*models.Attendance, error) {
	m.checkOutID = id
	m.checkOutTime = checkOut
	m.checkOutEarly = earlyLeave
	att := *m.existing
	att.CheckOut = &checkOut
	att.EarlyLeave = earlyLeave
	return &att, nil
}

func (m *mockAttendanceStore) MarkAbsent(_ context.Context, userID string, date time.Time) (*models.Attendance, error) {
	return &models.Attendance{ID: "a1", UserID: userID, Date: date, Status: models.AttendanceAbsent}, nil
}

func (m *mockAttendanceStore) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return m.listRows, m.listTotal, nil
}

func (m *mockAttendanceStore) ListForRange(_ context.Context, _ string, _ models.DateRange) ([]models.Attendance, error) {
	return m.rangeRows, nil
}

func (m *mockAttendanceStore) DailyCounts(_ context.Context, _ time.Time) (*models.DailyCounts, error) {
	return m.counts, nil
}

func (m *mockAttendanceStore) LatestForDate(_ context.Context, _ time.Time, _ int) ([]models.AttendanceRecord, error) {
	return m.latest, nil
}

func (m *mockAttendanceStore) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type mockPendingLeaves struct {
	leaves []models.Leave
}

func (m *mockPendingLeaves) ListPending(_ context.Context, _ int) ([]models.Leave, error) {
	return m.leaves, nil
}

type mockPendingPermissions struct {
	permissions []models.Permission
}

func (m *mockPendingPermissions) ListPending(_ context.Context, _ int) ([]models.Permission, error) {
	return m.permissions, nil
}

type mockInvalidator struct {
	calls []time.Time
}

func (m *mockInvalidator) InvalidateMonth(_ context.Context, _ string, date time.Time) {
	m.calls = append(m.calls, date)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newAttendanceFixture(store *mockAttendanceStore, perms *stubPermissionCoverage, now time.Time) (*AttendanceService, *mockInvalidator) {
	if perms == nil {
		perms = &stubPermissionCoverage{}
	}
	invalidator := &mockInvalidator{}
	svc := NewAttendanceService(
		store,
		&mockUserReader{users: map[string]*models.User{"u1": morningUser()}},
		testWindowResolver(),
		NewStatusResolver(&stubLeaveCoverage{}, &stubDayOffCoverage{}, perms),
		perms,
		&mockPendingLeaves{},
		&mockPendingPermissions{},
		invalidator,
		zap.NewNop(),
	).WithClock(fixedClock(now))
	return svc, invalidator
}

func TestCheckInLateBeyondGrace(t *testing.T) {
	// Wednesday 08:20 against an 08:00 start with a 15 minute grace.
	now := time.Date(2025, 3, 12, 8, 20, 0, 0, time.UTC)
	store := &mockAttendanceStore{}
	svc, invalidator := newAttendanceFixture(store, nil, now)

	att, result, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.Equal(t, 5, result.MinutesLate)
	assert.Equal(t, "morning", result.ShiftType)
	assert.Equal(t, 5, att.MinutesLate)
	require.NotNil(t, store.checkInParams)
	assert.Equal(t, "08:20:00", store.checkInParams.CheckIn)
	assert.Equal(t, "08:00:00", store.checkInParams.ShiftStart)
	assert.Len(t, invalidator.calls, 1)
}

func TestCheckInWithinGrace(t *testing.T) {
	now := time.Date(2025, 3, 12, 8, 10, 0, 0, time.UTC)
	store := &mockAttendanceStore{}
	svc, _ := newAttendanceFixture(store, nil, now)

	_, result, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.MinutesLate)
}

func TestCheckInLatePermissionZeroesLateness(t *testing.T) {
	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	store := &mockAttendanceStore{}
	perms := &stubPermissionCoverage{approved: map[models.PermissionType]bool{models.PermissionLate: true}}
	svc, _ := newAttendanceFixture(store, perms, now)

	_, result, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.MinutesLate)
	assert.True(t, store.checkInParams.HasLatePermission)
}

func TestCheckInAlreadyCheckedIn(t *testing.T) {
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	checkIn := "07:55:00"
	store := &mockAttendanceStore{existing: &models.Attendance{ID: "a1", CheckIn: &checkIn}}
	svc, _ := newAttendanceFixture(store, nil, now)

	_, _, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedIn)
}

func TestCheckInLostRace(t *testing.T) {
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	store := &mockAttendanceStore{checkInErr: sql.ErrNoRows}
	svc, _ := newAttendanceFixture(store, nil, now)

	_, _, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedIn)
}

func TestCheckInBlockedByLeave(t *testing.T) {
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	store := &mockAttendanceStore{}
	invalidator := &mockInvalidator{}
	svc := NewAttendanceService(
		store,
		&mockUserReader{users: map[string]*models.User{"u1": morningUser()}},
		testWindowResolver(),
		NewStatusResolver(&stubLeaveCoverage{covered: true}, &stubDayOffCoverage{}, &stubPermissionCoverage{}),
		&stubPermissionCoverage{},
		&mockPendingLeaves{},
		&mockPendingPermissions{},
		invalidator,
		zap.NewNop(),
	).WithClock(fixedClock(now))

	_, _, err := svc.CheckIn(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrOnApprovedLeave)
	assert.Nil(t, store.checkInParams)
	assert.Empty(t, invalidator.calls)
}

func TestCheckInUnknownUser(t *testing.T) {
	now := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	svc, _ := newAttendanceFixture(&mockAttendanceStore{}, nil, now)

	_, _, err := svc.CheckIn(context.Background(), "ghost", dto.CheckRequest{Source: "kiosk"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCheckOutEarlyLeave(t *testing.T) {
	now := time.Date(2025, 3, 12, 16, 30, 0, 0, time.UTC)
	checkIn := "08:00:00"
	store := &mockAttendanceStore{existing: &models.Attendance{ID: "a1", UserID: "u1", CheckIn: &checkIn}}
	svc, invalidator := newAttendanceFixture(store, nil, now)

	att, result, err := svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.True(t, result.EarlyLeave)
	assert.True(t, att.EarlyLeave)
	assert.Equal(t, 8*60+30, result.WorkedMinutes)
	assert.Equal(t, "16:30:00", store.checkOutTime)
	assert.Len(t, invalidator.calls, 1)
}

func TestCheckOutAtWindowEnd(t *testing.T) {
	now := time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC)
	checkIn := "08:00:00"
	store := &mockAttendanceStore{existing: &models.Attendance{ID: "a1", UserID: "u1", CheckIn: &checkIn}}
	svc, _ := newAttendanceFixture(store, nil, now)

	_, result, err := svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.False(t, result.EarlyLeave)
}

func TestCheckOutEarlyLeavePermissionSuppresses(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	checkIn := "08:00:00"
	store := &mockAttendanceStore{existing: &models.Attendance{ID: "a1", UserID: "u1", CheckIn: &checkIn}}
	perms := &stubPermissionCoverage{approved: map[models.PermissionType]bool{models.PermissionEarlyLeave: true}}
	svc, _ := newAttendanceFixture(store, perms, now)

	_, result, err := svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.False(t, result.EarlyLeave)
}

func TestCheckOutGuards(t *testing.T) {
	now := time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC)

	svc, _ := newAttendanceFixture(&mockAttendanceStore{}, nil, now)
	_, _, err := svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrNoCheckInFound)

	svc, _ = newAttendanceFixture(&mockAttendanceStore{existing: &models.Attendance{ID: "a1"}}, nil, now)
	_, _, err = svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrNoCheckInFound)

	checkIn := "08:00:00"
	checkOut := "12:00:00"
	svc, _ = newAttendanceFixture(&mockAttendanceStore{existing: &models.Attendance{ID: "a1", CheckIn: &checkIn, CheckOut: &checkOut}}, nil, now)
	_, _, err = svc.CheckOut(context.Background(), "u1", dto.CheckRequest{Source: "kiosk"})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedOut)
}

func TestCheckOutOvernightWorkedMinutes(t *testing.T) {
	// Evening shift checking out past midnight; the clock comparison wraps.
	now := time.Date(2025, 3, 13, 0, 30, 0, 0, time.UTC)
	checkIn := "17:00:00"
	store := &mockAttendanceStore{existing: &models.Attendance{ID: "a1", UserID: "u2", CheckIn: &checkIn}}
	perms := &stubPermissionCoverage{}
	svc := NewAttendanceService(
		store,
		&mockUserReader{users: map[string]*models.User{"u2": eveningUser()}},
		testWindowResolver(),
		NewStatusResolver(&stubLeaveCoverage{}, &stubDayOffCoverage{}, perms),
		perms,
		&mockPendingLeaves{},
		&mockPendingPermissions{},
		&mockInvalidator{},
		zap.NewNop(),
	).WithClock(fixedClock(now))

	_, result, err := svc.CheckOut(context.Background(), "u2", dto.CheckRequest{Source: "kiosk"})
	require.NoError(t, err)
	assert.Equal(t, 7*60+30, result.WorkedMinutes)
	assert.False(t, result.EarlyLeave)
}

func TestMarkAbsentDefaultsToToday(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, invalidator := newAttendanceFixture(&mockAttendanceStore{}, nil, now)

	att, err := svc.MarkAbsent(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAbsent, att.Status)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), att.Date)
	assert.Len(t, invalidator.calls, 1)

	target := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	att, err = svc.MarkAbsent(context.Background(), "u1", &target)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), att.Date)
}

func TestTodaySituationCounters(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	store := &mockAttendanceStore{counts: &models.DailyCounts{Present: 12, Absent: 3, Late: 2}}
	perms := &stubPermissionCoverage{}
	invalidator := &mockInvalidator{}
	svc := NewAttendanceService(
		store,
		&mockUserReader{users: map[string]*models.User{"u1": morningUser()}},
		testWindowResolver(),
		NewStatusResolver(&stubLeaveCoverage{}, &stubDayOffCoverage{}, perms),
		perms,
		&mockPendingLeaves{leaves: []models.Leave{{ID: "l1"}}},
		&mockPendingPermissions{permissions: []models.Permission{{ID: "p1"}, {ID: "p2"}}},
		invalidator,
		zap.NewNop(),
	).WithClock(fixedClock(now))

	situation, err := svc.TodaySituation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, situation.Statistics.Present)
	assert.Equal(t, 3, situation.Statistics.TotalPendingRequests)
}

func TestMyAttendancesDecoration(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	checkIn := "08:30:00"
	checkOut := "16:00:00"
	store := &mockAttendanceStore{rangeRows: []models.Attendance{{
		ID:          "a1",
		UserID:      "u1",
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckIn:     &checkIn,
		CheckOut:    &checkOut,
		MinutesLate: 15,
		Status:      models.AttendancePresent,
	}}}
	svc, _ := newAttendanceFixture(store, nil, now)

	views, err := svc.MyAttendances(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsLate)
	assert.True(t, views[0].LeftEarly)
	assert.Equal(t, 15, views[0].MinutesLate)
}
