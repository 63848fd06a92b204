package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	"github.com/nafa-hr/attendance-api/internal/repository"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type attendanceStore interface {
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.Attendance, error)
	CheckIn(ctx context.Context, p repository.CheckInParams) (*models.Attendance, error)
	CheckOut(ctx context.Context, attendanceID, checkOut string, earlyLeave bool) (*models.Attendance, error)
	MarkAbsent(ctx context.Context, userID string, date time.Time) (*models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	ListForRange(ctx context.Context, userID string, rng models.DateRange) ([]models.Attendance, error)
	DailyCounts(ctx context.Context, date time.Time) (*models.DailyCounts, error)
	LatestForDate(ctx context.Context, date time.Time, limit int) ([]models.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type pendingLeavesReader interface {
	ListPending(ctx context.Context, limit int) ([]models.Leave, error)
}

type pendingPermissionsReader interface {
	ListPending(ctx context.Context, limit int) ([]models.Permission, error)
}

type statsInvalidator interface {
	InvalidateMonth(ctx context.Context, userID string, date time.Time)
}

// AttendanceService governs the per-day attendance lifecycle: live check-in
// and check-out, the administrative absence override, and the read paths.
type AttendanceService struct {
	store    attendanceStore
	users    userReader
	windows  *WindowResolver
	resolver *StatusResolver
	perms    permissionCoverageReader
	pendingL pendingLeavesReader
	pendingP pendingPermissionsReader
	stats    statsInvalidator
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService constructs the service. The clock defaults to
// time.Now and is overridable for deterministic tests.
func NewAttendanceService(
	store attendanceStore,
	users userReader,
	windows *WindowResolver,
	resolver *StatusResolver,
	perms permissionCoverageReader,
	pendingLeaves pendingLeavesReader,
	pendingPermissions pendingPermissionsReader,
	stats statsInvalidator,
	logger *zap.Logger,
) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		store:    store,
		users:    users,
		windows:  windows,
		resolver: resolver,
		perms:    perms,
		pendingL: pendingLeaves,
		pendingP: pendingPermissions,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// CheckIn records the caller's arrival for today. The sequence mirrors the
// lifecycle contract: duplicate guard, leave and day-off guards, shift
// window resolution, lateness arithmetic, then one atomic upsert that also
// recomputes the monthly lateness total.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, req dto.CheckRequest) (*models.Attendance, *dto.CheckInResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	today := models.DayOf(now)

	existing, err := s.store.FindByUserAndDate(ctx, userID, today)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing != nil && existing.CheckIn != nil {
		return nil, nil, appErrors.ErrAlreadyCheckedIn
	}

	status, err := s.resolver.ResolveStatus(ctx, userID, today)
	if err != nil {
		return nil, nil, err
	}
	switch status {
	case models.AttendanceOnLeave:
		return nil, nil, appErrors.ErrOnApprovedLeave
	case models.AttendanceDayOff:
		return nil, nil, appErrors.ErrOnDayOff
	}

	window, err := s.windows.EffectiveWindow(user, today)
	if err != nil {
		return nil, nil, err
	}

	hasLatePermission, err := s.perms.ExistsApproved(ctx, userID, today, models.PermissionLate)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check late permission")
	}

	minutesLate := ComputeLateness(now, window.Start, s.windows.Grace(), hasLatePermission)

	month := models.MonthRange(today.Year(), today.Month(), today.Location())
	scanMethod := req.ScanMethod
	if scanMethod == "" {
		scanMethod = "scan"
	}

	stored, err := s.store.CheckIn(ctx, repository.CheckInParams{
		UserID:            userID,
		Date:              today,
		CheckIn:           now.Format("15:04:05"),
		MinutesLate:       minutesLate,
		ScanMethod:        scanMethod,
		ShiftStart:        window.StartClock(),
		ShiftEnd:          window.EndClock(),
		HasLatePermission: hasLatePermission,
		MonthStart:        month.Start,
		MonthEnd:          month.End,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race against a concurrent check-in.
			return nil, nil, appErrors.ErrAlreadyCheckedIn
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	if s.stats != nil {
		s.stats.InvalidateMonth(ctx, userID, today)
	}

	s.logger.Info("check-in recorded",
		zap.String("user_id", userID),
		zap.Int("minutes_late", minutesLate),
		zap.String("shift_type", string(window.Type)))

	return stored, &dto.CheckInResult{
		MinutesLate: minutesLate,
		ShiftType:   string(window.Type),
		ShiftStart:  window.StartClock(),
		ShiftEnd:    window.EndClock(),
	}, nil
}

// CheckOut records the caller's departure for today. The monthly lateness
// total is left untouched; it reflects the value computed at check-in.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string, req dto.CheckRequest) (*models.Attendance, *dto.CheckOutResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	today := models.DayOf(now)

	existing, err := s.store.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNoCheckInFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if existing.CheckIn == nil {
		return nil, nil, appErrors.ErrNoCheckInFound
	}
	if existing.CheckOut != nil {
		return nil, nil, appErrors.ErrAlreadyCheckedOut
	}

	window, err := s.windows.EffectiveWindow(user, today)
	if err != nil {
		return nil, nil, err
	}

	hasEarlyLeavePermission, err := s.perms.ExistsApproved(ctx, userID, today, models.PermissionEarlyLeave)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check early-leave permission")
	}

	earlyLeave := ComputeEarlyLeave(now, window, hasEarlyLeavePermission)

	stored, err := s.store.CheckOut(ctx, existing.ID, now.Format("15:04:05"), earlyLeave)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrAlreadyCheckedOut
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}

	if s.stats != nil {
		s.stats.InvalidateMonth(ctx, userID, today)
	}

	worked := 0
	if in, ok := clockMinutes(*existing.CheckIn); ok {
		out := now.Hour()*60 + now.Minute()
		if out < in {
			out += 24 * 60
		}
		worked = out - in
	}

	return stored, &dto.CheckOutResult{
		WorkedMinutes: worked,
		EarlyLeave:    earlyLeave,
		ShiftType:     string(window.Type),
		ShiftEnd:      window.EndClock(),
	}, nil
}

// MarkAbsent force-upserts an absent record for any user and date. It is the
// explicit manual correction path and deliberately skips the resolver.
func (s *AttendanceService) MarkAbsent(ctx context.Context, userID string, date *time.Time) (*models.Attendance, error) {
	target := models.DayOf(s.now())
	if date != nil {
		target = models.DayOf(*date)
	}
	stored, err := s.store.MarkAbsent(ctx, userID, target)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark absent")
	}
	if s.stats != nil {
		s.stats.InvalidateMonth(ctx, userID, target)
	}
	return stored, nil
}

// List returns attendance rows matching the filter with pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	rows, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendances")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 10
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MyAttendances returns the caller's current-month rows decorated with
// lateness flags and permission lookups.
func (s *AttendanceService) MyAttendances(ctx context.Context, userID string) ([]dto.AttendanceView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	month := models.MonthRange(now.Year(), now.Month(), now.Location())
	rows, err := s.store.ListForRange(ctx, userID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendances")
	}

	views := make([]dto.AttendanceView, 0, len(rows))
	for i := range rows {
		view, err := s.decorate(ctx, user, &rows[i])
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// DailyOverview returns the vigile view of one date: every record decorated.
func (s *AttendanceService) DailyOverview(ctx context.Context, date time.Time) ([]dto.AttendanceView, error) {
	rows, _, err := s.store.List(ctx, models.AttendanceFilter{DateFrom: &date, DateTo: &date, PageSize: 200})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendances")
	}

	views := make([]dto.AttendanceView, 0, len(rows))
	for i := range rows {
		user, err := s.loadUser(ctx, rows[i].UserID)
		if err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
				continue
			}
			return nil, err
		}
		view, err := s.decorate(ctx, user, &rows[i].Attendance)
		if err != nil {
			return nil, err
		}
		view.FirstName = rows[i].FirstName
		view.LastName = rows[i].LastName
		views = append(views, view)
	}
	return views, nil
}

// TodaySituation builds the dashboard payload for the current date.
func (s *AttendanceService) TodaySituation(ctx context.Context) (*dto.TodaySituation, error) {
	today := models.DayOf(s.now())

	latest, err := s.store.LatestForDate(ctx, today, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest attendances")
	}
	counts, err := s.store.DailyCounts(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily counts")
	}
	pendingLeaves, err := s.pendingL.ListPending(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending leaves")
	}
	pendingPermissions, err := s.pendingP.ListPending(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending permissions")
	}

	return &dto.TodaySituation{
		AttendancesToday:   latest,
		PendingPermissions: pendingPermissions,
		PendingLeaves:      pendingLeaves,
		Statistics: dto.TodayStatistic{
			Present:              counts.Present,
			Absent:               counts.Absent,
			Late:                 counts.Late,
			TotalPendingRequests: len(pendingLeaves) + len(pendingPermissions),
		},
	}, nil
}

// Delete removes a record. Administrative use only.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	return nil
}

func (s *AttendanceService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// decorate computes the is_late / left_early flags the way clients expect
// them: against the ordinary shift clock, suppressed by approved
// permissions. Historical rows only carry times of day, so the comparison
// works on clock minutes.
func (s *AttendanceService) decorate(ctx context.Context, user *models.User, att *models.Attendance) (dto.AttendanceView, error) {
	view := dto.AttendanceView{
		UserID:      att.UserID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Date:        att.Date,
		CheckIn:     att.CheckIn,
		CheckOut:    att.CheckOut,
		MinutesLate: att.MinutesLate,
		Status:      string(att.Status),
	}

	hasLate, err := s.perms.ExistsApproved(ctx, att.UserID, att.Date, models.PermissionLate)
	if err != nil {
		return view, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check late permission")
	}
	hasEarly, err := s.perms.ExistsApproved(ctx, att.UserID, att.Date, models.PermissionEarlyLeave)
	if err != nil {
		return view, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check early-leave permission")
	}
	view.HasLatePermission = hasLate
	view.HasEarlyLeavePermission = hasEarly

	if user.Shift != nil {
		if att.CheckIn != nil && !hasLate {
			if in, ok := clockMinutes(*att.CheckIn); ok {
				if start, ok := clockMinutes(user.Shift.StartTime); ok {
					view.IsLate = in > start
				}
			}
		}
		if att.CheckOut != nil && !hasEarly {
			if out, ok := clockMinutes(*att.CheckOut); ok {
				if end, ok := clockMinutes(user.Shift.EndTime); ok {
					view.LeftEarly = out < end
				}
			}
		}
	}
	return view, nil
}
