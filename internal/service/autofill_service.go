package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type shiftRosterReader interface {
	ListByShiftType(ctx context.Context, shiftType models.ShiftType) ([]models.User, error)
}

type attendanceMaterializer interface {
	ExistsForDate(ctx context.Context, userID string, date time.Time) (bool, error)
	BulkInsert(ctx context.Context, records []models.Attendance) (int, error)
}

// AutoFillService materializes one attendance record per eligible user per
// day so that users who never check in still end the day with a row.
type AutoFillService struct {
	roster   shiftRosterReader
	store    attendanceMaterializer
	windows  *WindowResolver
	resolver *StatusResolver
	perms    permissionCoverageReader
	stats    statsInvalidator
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAutoFillService constructs the service.
func NewAutoFillService(
	roster shiftRosterReader,
	store attendanceMaterializer,
	windows *WindowResolver,
	resolver *StatusResolver,
	perms permissionCoverageReader,
	stats statsInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *AutoFillService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoFillService{
		roster:   roster,
		store:    store,
		windows:  windows,
		resolver: resolver,
		perms:    perms,
		stats:    stats,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *AutoFillService) WithClock(now func() time.Time) *AutoFillService {
	s.now = now
	return s
}

// Fill runs one materialization pass for a shift type and date. Users are
// skipped when they have no matching shift, do not work the weekend, or
// already own a row for the date. Per-user resolution failures are logged
// and skipped; they never abort the batch. When no date is given the
// evening pass targets yesterday since that shift closes past midnight.
func (s *AutoFillService) Fill(ctx context.Context, req dto.AutoFillRequest) (*dto.AutoFillResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-fill payload")
	}
	shiftType := models.ShiftType(req.ShiftType)
	if !shiftType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "shift_type must be morning or evening")
	}

	date, err := s.targetDate(req.Date, shiftType)
	if err != nil {
		return nil, err
	}

	users, err := s.roster.ListByShiftType(ctx, shiftType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift roster")
	}

	weekend := models.IsWeekend(date)
	records := make([]models.Attendance, 0, len(users))
	skipped := 0

	for i := range users {
		user := &users[i]
		if user.Shift == nil || user.Shift.Type != shiftType {
			skipped++
			continue
		}
		if weekend && !user.WorksWeekend {
			skipped++
			continue
		}
		exists, err := s.store.ExistsForDate(ctx, user.ID, date)
		if err != nil {
			s.logger.Warn("auto-fill existence check failed", zap.String("user_id", user.ID), zap.Error(err))
			skipped++
			continue
		}
		if exists {
			skipped++
			continue
		}

		status, err := s.resolver.ResolveStatus(ctx, user.ID, date)
		if err != nil {
			s.logger.Warn("auto-fill status resolution failed", zap.String("user_id", user.ID), zap.Error(err))
			skipped++
			continue
		}
		window, err := s.windows.EffectiveWindow(user, date)
		if err != nil {
			s.logger.Warn("auto-fill window resolution failed", zap.String("user_id", user.ID), zap.Error(err))
			skipped++
			continue
		}
		hasLate, err := s.perms.ExistsApproved(ctx, user.ID, date, models.PermissionLate)
		if err != nil {
			s.logger.Warn("auto-fill permission lookup failed", zap.String("user_id", user.ID), zap.Error(err))
			skipped++
			continue
		}

		start := window.StartClock()
		end := window.EndClock()
		records = append(records, models.Attendance{
			UserID:            user.ID,
			Date:              date,
			MinutesLate:       0,
			Status:            status,
			ShiftStart:        &start,
			ShiftEnd:          &end,
			HasLatePermission: hasLate,
		})
	}

	created, err := s.store.BulkInsert(ctx, records)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert attendance records")
	}

	if s.stats != nil {
		for i := range records {
			s.stats.InvalidateMonth(ctx, records[i].UserID, date)
		}
	}

	s.logger.Info("auto-fill completed",
		zap.String("shift_type", string(shiftType)),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("created", created),
		zap.Int("skipped", skipped))

	return &dto.AutoFillResult{
		CreatedCount: created,
		SkippedCount: skipped,
		Date:         date.Format("2006-01-02"),
		ShiftType:    string(shiftType),
	}, nil
}

func (s *AutoFillService) targetDate(raw string, shiftType models.ShiftType) (time.Time, error) {
	if raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, s.now().Location())
		if err != nil {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		return models.DayOf(parsed), nil
	}
	today := models.DayOf(s.now())
	if shiftType == models.ShiftEvening {
		return today.AddDate(0, 0, -1), nil
	}
	return today, nil
}
