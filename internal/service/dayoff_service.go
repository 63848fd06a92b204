package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type dayOffStore interface {
	FindByID(ctx context.Context, id string) (*models.WeeklyDayOff, error)
	Create(ctx context.Context, dayOff *models.WeeklyDayOff) error
	UpdateDate(ctx context.Context, id string, date time.Time) error
	ExistsInWeek(ctx context.Context, userID string, week models.DateRange, excludeID string) (bool, error)
	ListBetween(ctx context.Context, rng models.DateRange) ([]models.WeeklyDayOff, error)
	Delete(ctx context.Context, id string) error
}

// DayOffService manages weekly day-off assignments. Each user holds at
// most one day off per ISO week, Monday through Sunday.
type DayOffService struct {
	store    dayOffStore
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewDayOffService constructs the service.
func NewDayOffService(store dayOffStore, validate *validator.Validate, logger *zap.Logger) *DayOffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayOffService{store: store, validate: validate, logger: logger, now: time.Now}
}

// WithClock overrides the time source.
func (s *DayOffService) WithClock(now func() time.Time) *DayOffService {
	s.now = now
	return s
}

// Create assigns a day off, rejecting a second assignment in the same week.
func (s *DayOffService) Create(ctx context.Context, creatorID string, req dto.CreateDayOffRequest) (*models.WeeklyDayOff, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day off payload")
	}
	date, err := parseDay(req.DayOffDate)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsInWeek(ctx, req.UserID, models.WeekRange(date), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check week occupancy")
	}
	if taken {
		return nil, appErrors.ErrDayOffWeekConflict
	}

	dayOff := &models.WeeklyDayOff{
		UserID:     req.UserID,
		DayOffDate: date,
		CreatedBy:  creatorID,
	}
	if err := s.store.Create(ctx, dayOff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create day off")
	}
	s.logger.Info("day off assigned",
		zap.String("day_off_id", dayOff.ID),
		zap.String("user_id", req.UserID),
		zap.String("date", date.Format("2006-01-02")))
	return dayOff, nil
}

// Update moves a day off to another date, still one per week. The
// existing row is excluded from the conflict check so moving within
// the same week stays legal.
func (s *DayOffService) Update(ctx context.Context, id string, req dto.UpdateDayOffRequest) (*models.WeeklyDayOff, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day off payload")
	}
	date, err := parseDay(req.DayOffDate)
	if err != nil {
		return nil, err
	}

	dayOff, err := s.findDayOff(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsInWeek(ctx, dayOff.UserID, models.WeekRange(date), id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check week occupancy")
	}
	if taken {
		return nil, appErrors.ErrDayOffWeekConflict
	}

	if err := s.store.UpdateDate(ctx, id, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day off not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update day off")
	}
	return s.findDayOff(ctx, id)
}

// ListCurrentWeek returns all day offs in the current Monday to Sunday week.
func (s *DayOffService) ListCurrentWeek(ctx context.Context) ([]models.WeeklyDayOff, error) {
	return s.ListForWeek(ctx, s.now())
}

// ListForWeek returns all day offs in the week containing the given date.
func (s *DayOffService) ListForWeek(ctx context.Context, date time.Time) ([]models.WeeklyDayOff, error) {
	dayOffs, err := s.store.ListBetween(ctx, models.WeekRange(date))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day offs")
	}
	return dayOffs, nil
}

// Delete removes a day off assignment.
func (s *DayOffService) Delete(ctx context.Context, id string) error {
	if _, err := s.findDayOff(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete day off")
	}
	return nil
}

func (s *DayOffService) findDayOff(ctx context.Context, id string) (*models.WeeklyDayOff, error) {
	dayOff, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day off not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day off")
	}
	return dayOff, nil
}

func parseDay(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "day_off_date must be YYYY-MM-DD")
	}
	return models.DayOf(parsed), nil
}
