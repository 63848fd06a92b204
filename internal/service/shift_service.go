package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type shiftStore interface {
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	List(ctx context.Context) ([]models.Shift, error)
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	ReplaceSchedules(ctx context.Context, shiftID string, schedules []models.WorkSchedule) error
	Delete(ctx context.Context, id string) error
}

// ShiftService manages shifts and their per-weekday schedule overrides.
type ShiftService struct {
	store    shiftStore
	validate *validator.Validate
	logger   *zap.Logger
}

// NewShiftService constructs the service.
func NewShiftService(store shiftStore, validate *validator.Validate, logger *zap.Logger) *ShiftService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{store: store, validate: validate, logger: logger}
}

// Create adds a shift together with its weekday overrides.
func (s *ShiftService) Create(ctx context.Context, req dto.ShiftRequest) (*models.Shift, error) {
	shift, schedules, err := s.buildShift(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shift")
	}
	if len(schedules) > 0 {
		if err := s.store.ReplaceSchedules(ctx, shift.ID, schedules); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store work schedules")
		}
	}
	s.logger.Info("shift created", zap.String("shift_id", shift.ID), zap.String("type", string(shift.Type)))
	return s.Get(ctx, shift.ID)
}

// Update edits a shift and replaces its weekday overrides wholesale.
func (s *ShiftService) Update(ctx context.Context, id string, req dto.ShiftRequest) (*models.Shift, error) {
	shift, schedules, err := s.buildShift(req)
	if err != nil {
		return nil, err
	}
	shift.ID = id

	if err := s.store.Update(ctx, shift); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update shift")
	}
	if err := s.store.ReplaceSchedules(ctx, id, schedules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store work schedules")
	}
	return s.Get(ctx, id)
}

// Get returns one shift with overrides.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load shift")
	}
	return shift, nil
}

// List returns all shifts.
func (s *ShiftService) List(ctx context.Context) ([]models.Shift, error) {
	shifts, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list shifts")
	}
	return shifts, nil
}

// Delete removes a shift.
func (s *ShiftService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete shift")
	}
	return nil
}

func (s *ShiftService) buildShift(req dto.ShiftRequest) (*models.Shift, []models.WorkSchedule, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shift payload")
	}
	shiftType := models.ShiftType(req.Type)
	if !shiftType.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "type must be morning or evening")
	}
	if _, ok := clockMinutes(req.StartTime); !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM:SS")
	}
	if _, ok := clockMinutes(req.EndTime); !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM:SS")
	}

	schedules := make([]models.WorkSchedule, 0, len(req.WorkSchedules))
	for _, ws := range req.WorkSchedules {
		entry := models.WorkSchedule{
			Day:          ws.Day,
			StartTime:    ws.StartTime,
			EndTime:      ws.EndTime,
			IsWorkingDay: ws.IsWorkingDay,
		}
		if !models.ValidWeekday(ws.Day) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "day must be a weekday name")
		}
		if _, ok := clockMinutes(ws.StartTime); !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "schedule start_time must be HH:MM:SS")
		}
		if _, ok := clockMinutes(ws.EndTime); !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "schedule end_time must be HH:MM:SS")
		}
		schedules = append(schedules, entry)
	}

	return &models.Shift{
		Name:      req.Name,
		Label:     req.Label,
		Type:      shiftType,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive,
	}, schedules, nil
}
