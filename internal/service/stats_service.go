package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
	"github.com/nafa-hr/attendance-api/pkg/export"
)

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type allUsersReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
}

type attendanceHistoryReader interface {
	ListForRange(ctx context.Context, userID string, rng models.DateRange) ([]models.Attendance, error)
	ListAllForRange(ctx context.Context, rng models.DateRange) ([]models.Attendance, error)
}

type permissionCounter interface {
	CountIntersecting(ctx context.Context, userID string, rng models.DateRange) (int, error)
}

type departmentNamer interface {
	NameByID(ctx context.Context, id string) (*string, error)
}

// StatsService computes monthly aggregates over materialized attendance
// rows. Results are cached in Redis and invalidated whenever a write
// touches the month.
type StatsService struct {
	attendances attendanceHistoryReader
	users       allUsersReader
	perms       permissionCounter
	departments departmentNamer
	windows     *WindowResolver
	cache       statsCache
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(
	attendances attendanceHistoryReader,
	users allUsersReader,
	perms permissionCounter,
	departments departmentNamer,
	windows *WindowResolver,
	cache statsCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		attendances: attendances,
		users:       users,
		perms:       perms,
		departments: departments,
		windows:     windows,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// InvalidateMonth drops every cached aggregate touching the user's month.
// Best effort: a failed invalidation only shortens cache accuracy until
// the TTL expires, so errors are logged and swallowed.
func (s *StatsService) InvalidateMonth(ctx context.Context, userID string, date time.Time) {
	if s.cache == nil {
		return
	}
	month := date.Format("2006-01")
	for _, pattern := range []string{
		fmt.Sprintf("stats:user:%s:%s", userID, month),
		fmt.Sprintf("stats:counts:%s", month),
		fmt.Sprintf("stats:org:%s", month),
	} {
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

// UserMonthlyStats aggregates one user's month: presence hours from
// checked in/out pairs, late hours from recorded lateness, absence days,
// and the count of permissions intersecting the month.
func (s *StatsService) UserMonthlyStats(ctx context.Context, userID string, year int, month time.Month) (*dto.UserMonthlyStats, error) {
	key := fmt.Sprintf("stats:user:%s:%04d-%02d", userID, year, int(month))
	var cached dto.UserMonthlyStats
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	rng := models.MonthRange(year, month, time.UTC)
	rows, err := s.attendances.ListForRange(ctx, userID, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	permCount, err := s.perms.CountIntersecting(ctx, userID, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count permissions")
	}

	stats := &dto.UserMonthlyStats{
		UserID:           userID,
		Name:             user.FullName(),
		Department:       s.departmentName(ctx, user.DepartmentID),
		Month:            fmt.Sprintf("%04d-%02d", year, int(month)),
		PermissionsCount: permCount,
	}
	for i := range rows {
		row := &rows[i]
		// A day counts as absent whenever nobody checked in, whatever
		// status the materializer stamped on it.
		if row.CheckIn == nil {
			stats.Absences++
		}
		stats.LateHours += float64(row.MinutesLate) / 60.0
		if row.Status == models.AttendancePresent {
			stats.PresenceHours += presenceHours(row)
		}
	}
	stats.PresenceHours = round2(stats.PresenceHours)
	stats.LateHours = round2(stats.LateHours)

	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// AllUsersMonthlyCounts returns per-user day counts for the month: days
// present, days late, days absent and days resolved as permission.
func (s *StatsService) AllUsersMonthlyCounts(ctx context.Context, year int, month time.Month) ([]dto.UserMonthlyCounts, error) {
	key := fmt.Sprintf("stats:counts:%04d-%02d", year, int(month))
	var cached []dto.UserMonthlyCounts
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	rng := models.MonthRange(year, month, time.UTC)
	rows, err := s.attendances.ListAllForRange(ctx, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	byUser := make(map[string][]*models.Attendance, len(users))
	for i := range rows {
		byUser[rows[i].UserID] = append(byUser[rows[i].UserID], &rows[i])
	}

	report := make([]dto.UserMonthlyCounts, 0, len(users))
	for i := range users {
		user := &users[i]
		entry := dto.UserMonthlyCounts{
			UserID:     user.ID,
			Name:       user.FullName(),
			Role:       string(user.Role),
			Department: s.departmentName(ctx, user.DepartmentID),
		}
		for _, row := range byUser[user.ID] {
			switch row.Status {
			case models.AttendancePresent:
				entry.PresentDays++
				if row.MinutesLate > 0 {
					entry.LateDays++
				}
			case models.AttendanceAbsent:
				entry.AbsentDays++
			case models.AttendancePermission:
				entry.PermissionDays++
			}
		}
		report = append(report, entry)
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

// OrganizationMonthlySummary walks every calendar day of the month against
// each user's effective schedule. A scheduled day with no attendance row
// charges the full shift as absent hours; rest days and weekends outside
// the user's working pattern contribute nothing.
func (s *StatsService) OrganizationMonthlySummary(ctx context.Context, year int, month time.Month) (*dto.MonthlyStatsReport, error) {
	key := fmt.Sprintf("stats:org:%04d-%02d", year, int(month))
	var cached dto.MonthlyStatsReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	rng := models.MonthRange(year, month, time.UTC)
	rows, err := s.attendances.ListAllForRange(ctx, rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	byUserDay := make(map[string]map[string]*models.Attendance)
	for i := range rows {
		row := &rows[i]
		dayKey := row.Date.Format("2006-01-02")
		if byUserDay[row.UserID] == nil {
			byUserDay[row.UserID] = make(map[string]*models.Attendance)
		}
		byUserDay[row.UserID][dayKey] = row
	}

	report := &dto.MonthlyStatsReport{
		Month: fmt.Sprintf("%04d-%02d", year, int(month)),
		Data:  make([]dto.UserScheduleHours, 0, len(users)),
	}
	for i := range users {
		user := &users[i]
		entry := dto.UserScheduleHours{
			UserID:     user.ID,
			Name:       user.FullName(),
			Role:       string(user.Role),
			Department: s.departmentName(ctx, user.DepartmentID),
		}
		for _, day := range rng.DaysList() {
			window, err := s.windows.EffectiveWindow(user, day)
			if err != nil {
				// Not scheduled that day. Nothing to charge.
				continue
			}
			shiftHours := float64(window.Minutes()) / 60.0
			row := byUserDay[user.ID][day.Format("2006-01-02")]
			switch {
			case row == nil:
				entry.AbsentHours += shiftHours
			case row.Status == models.AttendanceAbsent:
				entry.AbsentHours += shiftHours
			case row.Status == models.AttendancePresent:
				entry.PresentHours += presenceHours(row)
				entry.LateHours += float64(row.MinutesLate) / 60.0
			}
		}
		entry.PresentHours = round2(entry.PresentHours)
		entry.AbsentHours = round2(entry.AbsentHours)
		entry.LateHours = round2(entry.LateHours)
		report.Data = append(report.Data, entry)
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

// ExportMonthlyCounts renders the all-users counts as CSV or PDF bytes.
func (s *StatsService) ExportMonthlyCounts(ctx context.Context, year int, month time.Month, format string) ([]byte, string, error) {
	counts, err := s.AllUsersMonthlyCounts(ctx, year, month)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Role", "Department", "Present Days", "Late Days", "Absent Days", "Permission Days"},
	}
	for _, entry := range counts {
		dept := ""
		if entry.Department != nil {
			dept = *entry.Department
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":            entry.Name,
			"Role":            entry.Role,
			"Department":      dept,
			"Present Days":    fmt.Sprintf("%d", entry.PresentDays),
			"Late Days":       fmt.Sprintf("%d", entry.LateDays),
			"Absent Days":     fmt.Sprintf("%d", entry.AbsentDays),
			"Permission Days": fmt.Sprintf("%d", entry.PermissionDays),
		})
	}

	monthLabel := fmt.Sprintf("%04d-%02d", year, int(month))
	switch format {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, fmt.Sprintf("attendance-%s.csv", monthLabel), nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Monthly Attendance %s", monthLabel))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, fmt.Sprintf("attendance-%s.pdf", monthLabel), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *StatsService) departmentName(ctx context.Context, departmentID *string) *string {
	if departmentID == nil || s.departments == nil {
		return nil
	}
	name, err := s.departments.NameByID(ctx, *departmentID)
	if err != nil {
		return nil
	}
	return name
}

func (s *StatsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		return false
	}
	return true
}

func (s *StatsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// presenceHours measures the checked-in span on the clock, wrapping past
// midnight for evening shifts.
func presenceHours(row *models.Attendance) float64 {
	if row.CheckIn == nil || row.CheckOut == nil {
		return 0
	}
	in, okIn := clockMinutes(*row.CheckIn)
	out, okOut := clockMinutes(*row.CheckOut)
	if !okIn || !okOut {
		return 0
	}
	if out < in {
		out += 24 * 60
	}
	return float64(out-in) / 60.0
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
