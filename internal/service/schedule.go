package service

import (
	"fmt"
	"time"

	"github.com/nafa-hr/attendance-api/internal/models"
	"github.com/nafa-hr/attendance-api/pkg/config"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

// ShiftWindow is the effective working window for one user on one date,
// anchored to that date. End always lies after Start: windows that wrap past
// midnight (evening shifts ending at 00:00) extend into the next day.
type ShiftWindow struct {
	Type  models.ShiftType
	Start time.Time
	End   time.Time
}

// StartClock returns the window start as an "HH:MM:SS" time of day.
func (w ShiftWindow) StartClock() string {
	return w.Start.Format("15:04:05")
}

// EndClock returns the window end as an "HH:MM:SS" time of day.
func (w ShiftWindow) EndClock() string {
	return w.End.Format("15:04:05")
}

// Minutes is the scheduled length of the window.
func (w ShiftWindow) Minutes() int {
	return int(w.End.Sub(w.Start).Minutes())
}

// crossesMidnight reports whether the window wraps past the day boundary.
func (w ShiftWindow) crossesMidnight() bool {
	return w.End.Day() != w.Start.Day()
}

// WindowResolver computes effective shift windows. Weekend dates use the
// fixed per-type overrides; ordinary weekdays use the per-weekday schedule
// when one exists, the shift's ordinary times otherwise.
type WindowResolver struct {
	grace   time.Duration
	weekend map[models.ShiftType][2]string
}

// NewWindowResolver builds a resolver from the attendance tunables.
func NewWindowResolver(cfg config.AttendanceConfig) *WindowResolver {
	grace := time.Duration(cfg.GraceMinutes) * time.Minute
	if cfg.GraceMinutes < 0 {
		grace = 0
	}
	return &WindowResolver{
		grace: grace,
		weekend: map[models.ShiftType][2]string{
			models.ShiftMorning: {cfg.WeekendMorningStart, cfg.WeekendMorningEnd},
			models.ShiftEvening: {cfg.WeekendEveningStart, cfg.WeekendEveningEnd},
		},
	}
}

// Grace returns the configured check-in tolerance.
func (r *WindowResolver) Grace() time.Duration {
	return r.grace
}

// EffectiveWindow resolves the working window for a user and date. It fails
// with NoShiftAssigned when the user has no shift and with WeekendNotWorking
// on weekend dates for users not flagged to work weekends.
func (r *WindowResolver) EffectiveWindow(user *models.User, date time.Time) (ShiftWindow, error) {
	shift := user.Shift
	if shift == nil {
		return ShiftWindow{}, appErrors.ErrNoShiftAssigned
	}

	startClock := shift.StartTime
	endClock := shift.EndTime

	if models.IsWeekend(date) {
		if !user.WorksWeekend {
			return ShiftWindow{}, appErrors.ErrWeekendNotWorking
		}
		override, ok := r.weekend[shift.Type]
		if !ok {
			return ShiftWindow{}, appErrors.Clone(appErrors.ErrNoShiftAssigned, fmt.Sprintf("unknown shift type %q", shift.Type))
		}
		startClock, endClock = override[0], override[1]
	} else if ws := shift.ScheduleFor(date.Weekday()); ws != nil {
		if !ws.IsWorkingDay {
			return ShiftWindow{}, appErrors.ErrOnDayOff
		}
		startClock, endClock = ws.StartTime, ws.EndTime
	}

	return BuildWindow(shift.Type, date, startClock, endClock)
}

// BuildWindow anchors the clock strings to the date, pushing the end across
// midnight when it does not lie after the start.
func BuildWindow(shiftType models.ShiftType, date time.Time, startClock, endClock string) (ShiftWindow, error) {
	start, err := anchorClock(date, startClock)
	if err != nil {
		return ShiftWindow{}, err
	}
	end, err := anchorClock(date, endClock)
	if err != nil {
		return ShiftWindow{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return ShiftWindow{Type: shiftType, Start: start, End: end}, nil
}

// ComputeLateness returns the whole minutes of lateness beyond the grace
// period, zero when within grace, and zero whenever the user holds an
// approved late permission for the day.
func ComputeLateness(checkIn, windowStart time.Time, grace time.Duration, hasLatePermission bool) int {
	if hasLatePermission {
		return 0
	}
	if !checkIn.After(windowStart.Add(grace)) {
		return 0
	}
	late := int(checkIn.Sub(windowStart).Minutes()) - int(grace.Minutes())
	if late < 0 {
		late = 0
	}
	return late
}

// ComputeEarlyLeave reports whether the check-out falls strictly before the
// window end. An approved early-leave permission suppresses the flag. For
// overnight windows a check-out clocked before the window start is counted
// against the next-day end, not the raw time of day.
func ComputeEarlyLeave(checkOut time.Time, window ShiftWindow, hasEarlyLeavePermission bool) bool {
	if hasEarlyLeavePermission {
		return false
	}
	out := checkOut
	if window.crossesMidnight() && out.Before(window.Start) {
		out = out.AddDate(0, 0, 1)
	}
	return out.Before(window.End)
}

// anchorClock parses an "HH:MM:SS" (or "HH:MM") clock string onto a date.
func anchorClock(date time.Time, clock string) (time.Time, error) {
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, date.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid clock value %q", clock)
}

// clockMinutes converts an "HH:MM:SS" string to minutes since midnight. It
// backs the decoration of historical rows where only times of day survive.
func clockMinutes(clock string) (int, bool) {
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		if t, err = time.Parse("15:04", clock); err != nil {
			return 0, false
		}
	}
	return t.Hour()*60 + t.Minute(), true
}
