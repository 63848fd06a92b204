package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafa-hr/attendance-api/internal/models"
	"github.com/nafa-hr/attendance-api/pkg/config"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

func testWindowResolver() *WindowResolver {
	return NewWindowResolver(config.AttendanceConfig{
		GraceMinutes:        15,
		WeekendMorningStart: "09:00:00",
		WeekendMorningEnd:   "14:00:00",
		WeekendEveningStart: "16:00:00",
		WeekendEveningEnd:   "21:00:00",
	})
}

func morningUser() *models.User {
	return &models.User{
		ID:           "u1",
		WorksWeekend: false,
		Shift: &models.Shift{
			ID:        "s1",
			Type:      models.ShiftMorning,
			StartTime: "08:00:00",
			EndTime:   "17:00:00",
		},
	}
}

func eveningUser() *models.User {
	return &models.User{
		ID:           "u2",
		WorksWeekend: true,
		Shift: &models.Shift{
			ID:        "s2",
			Type:      models.ShiftEvening,
			StartTime: "17:00:00",
			EndTime:   "00:00:00",
		},
	}
}

func TestEffectiveWindowWeekday(t *testing.T) {
	r := testWindowResolver()
	// Wednesday
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	window, err := r.EffectiveWindow(morningUser(), date)
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", window.StartClock())
	assert.Equal(t, "17:00:00", window.EndClock())
	assert.Equal(t, 9*60, window.Minutes())
}

func TestEffectiveWindowNoShift(t *testing.T) {
	r := testWindowResolver()
	user := morningUser()
	user.Shift = nil

	_, err := r.EffectiveWindow(user, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, appErrors.ErrNoShiftAssigned)
}

func TestEffectiveWindowWeekendOverride(t *testing.T) {
	r := testWindowResolver()
	// Saturday
	saturday := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	user := morningUser()
	_, err := r.EffectiveWindow(user, saturday)
	assert.ErrorIs(t, err, appErrors.ErrWeekendNotWorking)

	user.WorksWeekend = true
	window, err := r.EffectiveWindow(user, saturday)
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", window.StartClock())
	assert.Equal(t, "14:00:00", window.EndClock())

	evening, err := r.EffectiveWindow(eveningUser(), saturday)
	require.NoError(t, err)
	assert.Equal(t, "16:00:00", evening.StartClock())
	assert.Equal(t, "21:00:00", evening.EndClock())
}

func TestEffectiveWindowWeekdaySchedule(t *testing.T) {
	r := testWindowResolver()
	user := morningUser()
	user.Shift.WorkSchedules = []models.WorkSchedule{
		{Day: "friday", StartTime: "08:00:00", EndTime: "12:00:00", IsWorkingDay: true},
		{Day: "wednesday", StartTime: "00:00:00", EndTime: "00:00:00", IsWorkingDay: false},
	}

	friday := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	window, err := r.EffectiveWindow(user, friday)
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", window.StartClock())
	assert.Equal(t, "12:00:00", window.EndClock())

	wednesday := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	_, err = r.EffectiveWindow(user, wednesday)
	assert.ErrorIs(t, err, appErrors.ErrOnDayOff)

	// Days without an override fall back to the shift's ordinary times.
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	window, err = r.EffectiveWindow(user, monday)
	require.NoError(t, err)
	assert.Equal(t, "17:00:00", window.EndClock())
}

func TestBuildWindowOvernightWrap(t *testing.T) {
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	window, err := BuildWindow(models.ShiftEvening, date, "17:00:00", "00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 13, window.Start.Day())
	assert.Equal(t, 12, window.Start.AddDate(0, 0, -1).Day())
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), window.End)
	assert.Equal(t, 7*60, window.Minutes())

	_, err = BuildWindow(models.ShiftMorning, date, "8h00", "17:00:00")
	assert.Error(t, err)
}

func TestComputeLateness(t *testing.T) {
	start := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	grace := 15 * time.Minute

	tests := []struct {
		name       string
		checkIn    time.Time
		latePermit bool
		want       int
	}{
		{"on time", start, false, 0},
		{"within grace", start.Add(10 * time.Minute), false, 0},
		{"at grace boundary", start.Add(15 * time.Minute), false, 0},
		{"five past grace", start.Add(20 * time.Minute), false, 5},
		{"one hour late", start.Add(75 * time.Minute), false, 60},
		{"late with permission", start.Add(45 * time.Minute), true, 0},
		{"early check-in", start.Add(-30 * time.Minute), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLateness(tt.checkIn, start, grace, tt.latePermit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeEarlyLeave(t *testing.T) {
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	day, err := BuildWindow(models.ShiftMorning, date, "08:00:00", "17:00:00")
	require.NoError(t, err)

	assert.True(t, ComputeEarlyLeave(time.Date(2025, 3, 12, 16, 30, 0, 0, time.UTC), day, false))
	assert.False(t, ComputeEarlyLeave(time.Date(2025, 3, 12, 17, 0, 0, 0, time.UTC), day, false))
	assert.False(t, ComputeEarlyLeave(time.Date(2025, 3, 12, 16, 30, 0, 0, time.UTC), day, true))
}

func TestComputeEarlyLeaveOvernight(t *testing.T) {
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	night, err := BuildWindow(models.ShiftEvening, date, "17:00:00", "00:00:00")
	require.NoError(t, err)

	// 23:50 the same evening is before the next-day midnight end.
	assert.True(t, ComputeEarlyLeave(time.Date(2025, 3, 12, 23, 50, 0, 0, time.UTC), night, false))
	assert.False(t, ComputeEarlyLeave(time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), night, false))
	// A check-out clocked after midnight counts against the next-day end.
	assert.False(t, ComputeEarlyLeave(time.Date(2025, 3, 12, 0, 30, 0, 0, time.UTC), night, false))
}

func TestClockMinutes(t *testing.T) {
	m, ok := clockMinutes("08:30:00")
	require.True(t, ok)
	assert.Equal(t, 510, m)

	m, ok = clockMinutes("17:45")
	require.True(t, ok)
	assert.Equal(t, 1065, m)

	_, ok = clockMinutes("not a clock")
	assert.False(t, ok)
}
