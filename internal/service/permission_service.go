package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type permissionStore interface {
	FindByID(ctx context.Context, id string) (*models.Permission, error)
	Create(ctx context.Context, perm *models.Permission) error
	Update(ctx context.Context, perm *models.Permission) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, approverID string) error
	ExistsPendingOverlap(ctx context.Context, userID string, rng models.DateRange, excludeID string) (bool, error)
	List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, int, error)
	Delete(ctx context.Context, id string) error
}

// PermissionService manages missing, late and early-leave permission
// requests. Approved permissions feed back into the attendance engine:
// a missing permission changes the resolved status, a late permission
// zeroes lateness, an early-leave permission suppresses the early flag.
type PermissionService struct {
	store    permissionStore
	stats    statsInvalidator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPermissionService constructs the service.
func NewPermissionService(store permissionStore, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *PermissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionService{store: store, stats: stats, validate: validate, logger: logger}
}

// Create submits a permission request. The type is normalized before
// validation so legacy clients sending "messing" still land on missing.
func (s *PermissionService) Create(ctx context.Context, requesterID string, req dto.CreatePermissionRequest) (*models.Permission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	userID := req.UserID
	if userID == "" {
		userID = requesterID
	}

	permType, ok := models.NormalizePermissionType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be missing, late or early_leave")
	}
	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := permissionTimeBounds(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.ExistsPendingOverlap(ctx, userID, rng, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending permissions")
	}
	if pending {
		return nil, appErrors.ErrPendingRequestOverlap
	}

	perm := &models.Permission{
		UserID:    userID,
		Type:      permType,
		StartDate: rng.Start,
		EndDate:   rng.End,
		StartTime: startTime,
		EndTime:   endTime,
		Reason:    req.Reason,
		Status:    models.RequestPending,
	}
	if err := s.store.Create(ctx, perm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create permission")
	}
	s.logger.Info("permission requested",
		zap.String("permission_id", perm.ID),
		zap.String("user_id", userID),
		zap.String("type", string(permType)))
	return perm, nil
}

// Update rewrites a still-pending request. Dropping the time bounds
// turns a timed permission back into a full-day one.
func (s *PermissionService) Update(ctx context.Context, id string, req dto.UpdatePermissionRequest) (*models.Permission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if perm.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	permType, ok := models.NormalizePermissionType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be missing, late or early_leave")
	}
	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := permissionTimeBounds(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.ExistsPendingOverlap(ctx, perm.UserID, rng, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending permissions")
	}
	if pending {
		return nil, appErrors.ErrPendingRequestOverlap
	}

	perm.Type = permType
	perm.StartDate = rng.Start
	perm.EndDate = rng.End
	perm.StartTime = startTime
	perm.EndTime = endTime
	perm.Reason = req.Reason
	if err := s.store.Update(ctx, perm); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permission")
	}
	s.logger.Info("permission updated", zap.String("permission_id", id))
	return s.findPermission(ctx, id)
}

// Approve transitions a pending permission to approved.
func (s *PermissionService) Approve(ctx context.Context, id, approverID string) (*models.Permission, error) {
	return s.transition(ctx, id, approverID, models.RequestApproved)
}

// Reject transitions a pending permission to rejected.
func (s *PermissionService) Reject(ctx context.Context, id, approverID string) (*models.Permission, error) {
	return s.transition(ctx, id, approverID, models.RequestRejected)
}

func (s *PermissionService) transition(ctx context.Context, id, approverID string, status models.RequestStatus) (*models.Permission, error) {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if perm.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	if err := s.store.UpdateStatus(ctx, id, status, approverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update permission status")
	}

	if status == models.RequestApproved && s.stats != nil {
		for _, day := range monthAnchors(perm.Range()) {
			s.stats.InvalidateMonth(ctx, perm.UserID, day)
		}
	}
	s.logger.Info("permission processed",
		zap.String("permission_id", id),
		zap.String("status", string(status)),
		zap.String("processed_by", approverID))
	return s.findPermission(ctx, id)
}

// Get returns a single permission.
func (s *PermissionService) Get(ctx context.Context, id string) (*models.Permission, error) {
	return s.findPermission(ctx, id)
}

// List returns permissions matching the filter with a total count.
func (s *PermissionService) List(ctx context.Context, filter models.PermissionFilter) ([]models.Permission, int, error) {
	perms, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return perms, total, nil
}

// ListByUser returns all permissions belonging to one user.
func (s *PermissionService) ListByUser(ctx context.Context, userID string) ([]models.Permission, error) {
	perms, _, err := s.store.List(ctx, models.PermissionFilter{UserID: userID, Page: 1, PageSize: 1000})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return perms, nil
}

// Delete removes a pending permission request.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	perm, err := s.findPermission(ctx, id)
	if err != nil {
		return err
	}
	if perm.Status != models.RequestPending {
		return appErrors.ErrAlreadyProcessed
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete permission")
	}
	return nil
}

// permissionTimeBounds validates the optional "HH:MM" bounds and
// normalizes them to "HH:MM:SS". A bound on only one side is allowed;
// when both are set the end must come after the start.
func permissionTimeBounds(start, end *string) (*string, *string, error) {
	normalize := func(raw *string) (*string, int, error) {
		if raw == nil || *raw == "" {
			return nil, 0, nil
		}
		minutes, ok := clockMinutes(*raw)
		if !ok {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "time bounds must be HH:MM")
		}
		clock := fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
		return &clock, minutes, nil
	}
	startClock, startMin, err := normalize(start)
	if err != nil {
		return nil, nil, err
	}
	endClock, endMin, err := normalize(end)
	if err != nil {
		return nil, nil, err
	}
	if startClock != nil && endClock != nil && endMin <= startMin {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return startClock, endClock, nil
}

func (s *PermissionService) findPermission(ctx context.Context, id string) (*models.Permission, error) {
	perm, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load permission")
	}
	return perm, nil
}
