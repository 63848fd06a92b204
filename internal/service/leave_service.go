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

type leaveStore interface {
	FindByID(ctx context.Context, id string) (*models.Leave, error)
	Create(ctx context.Context, leave *models.Leave) error
	UpdateDates(ctx context.Context, id string, start, end time.Time, reason string) error
	Approve(ctx context.Context, leave *models.Leave, approverID string) error
	Reject(ctx context.Context, id, approverID string) error
	ExistsOverlapping(ctx context.Context, userID string, rng models.DateRange, statuses ...models.RequestStatus) (bool, error)
	List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error)
	ListByUser(ctx context.Context, userID string) ([]models.Leave, error)
	Delete(ctx context.Context, id string) error
}

// LeaveService manages leave requests and the approval workflow that
// debits the requester's balance.
type LeaveService struct {
	store    leaveStore
	users    userReader
	stats    statsInvalidator
	validate *validator.Validate
	logger   *zap.Logger
}

// NewLeaveService constructs the service.
func NewLeaveService(store leaveStore, users userReader, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{store: store, users: users, stats: stats, validate: validate, logger: logger}
}

// Create submits a leave request. The requester must carry enough balance
// for the inclusive day count, and the range must not collide with another
// pending request or an already approved leave.
func (s *LeaveService) Create(ctx context.Context, requesterID string, req dto.CreateLeaveRequest) (*models.Leave, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	userID := req.UserID
	if userID == "" {
		userID = requesterID
	}

	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if rng.Days() > user.LeaveBalance {
		return nil, appErrors.ErrInsufficientLeaveBalance
	}

	pending, err := s.store.ExistsOverlapping(ctx, userID, rng, models.RequestPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending leaves")
	}
	if pending {
		return nil, appErrors.ErrPendingRequestOverlap
	}
	approved, err := s.store.ExistsOverlapping(ctx, userID, rng, models.RequestApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check approved leaves")
	}
	if approved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an approved leave already covers this period")
	}

	leave := &models.Leave{
		UserID:    userID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Reason:    req.Reason,
		Status:    models.RequestPending,
	}
	if err := s.store.Create(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave")
	}
	s.logger.Info("leave requested", zap.String("leave_id", leave.ID), zap.String("user_id", userID), zap.Int("days", leave.TotalDays()))
	return leave, nil
}

// Update edits the dates and reason of a pending leave request.
func (s *LeaveService) Update(ctx context.Context, id string, req dto.UpdateLeaveRequest) (*models.Leave, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	rng, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	leave, err := s.findLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	if err := s.store.UpdateDates(ctx, id, rng.Start, rng.End, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave")
	}
	return s.findLeave(ctx, id)
}

// Approve transitions a pending leave to approved and debits the balance.
// The status flip and the debit commit in one transaction, so a concurrent
// approval can win at most once.
func (s *LeaveService) Approve(ctx context.Context, id, approverID string) (*models.Leave, error) {
	leave, err := s.findLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	if err := s.store.Approve(ctx, leave, approverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave")
	}

	if s.stats != nil {
		for _, day := range monthAnchors(leave.Range()) {
			s.stats.InvalidateMonth(ctx, leave.UserID, day)
		}
	}
	s.logger.Info("leave approved", zap.String("leave_id", id), zap.String("approved_by", approverID))
	return s.findLeave(ctx, id)
}

// Reject transitions a pending leave to rejected. The balance is untouched.
func (s *LeaveService) Reject(ctx context.Context, id, approverID string) (*models.Leave, error) {
	leave, err := s.findLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != models.RequestPending {
		return nil, appErrors.ErrAlreadyProcessed
	}

	if err := s.store.Reject(ctx, id, approverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyProcessed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave")
	}
	s.logger.Info("leave rejected", zap.String("leave_id", id), zap.String("rejected_by", approverID))
	return s.findLeave(ctx, id)
}

// Get returns a single leave.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.Leave, error) {
	return s.findLeave(ctx, id)
}

// List returns leaves matching the filter with a total count.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveFilter) ([]models.Leave, int, error) {
	leaves, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leaves, total, nil
}

// ListByUser returns all leaves belonging to one user.
func (s *LeaveService) ListByUser(ctx context.Context, userID string) ([]models.Leave, error) {
	leaves, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leaves")
	}
	return leaves, nil
}

// Delete removes a pending leave request.
func (s *LeaveService) Delete(ctx context.Context, id string) error {
	leave, err := s.findLeave(ctx, id)
	if err != nil {
		return err
	}
	if leave.Status != models.RequestPending {
		return appErrors.ErrAlreadyProcessed
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete leave")
	}
	return nil
}

func (s *LeaveService) findLeave(ctx context.Context, id string) (*models.Leave, error) {
	leave, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave")
	}
	return leave, nil
}

// parseDateRange parses two YYYY-MM-DD bounds and rejects inverted ranges.
func parseDateRange(start, end string) (models.DateRange, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if e.Before(s) {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	return models.DateRange{Start: models.DayOf(s), End: models.DayOf(e)}, nil
}

// monthAnchors returns the first day of each month the range touches.
func monthAnchors(rng models.DateRange) []time.Time {
	var anchors []time.Time
	cur := time.Date(rng.Start.Year(), rng.Start.Month(), 1, 0, 0, 0, 0, rng.Start.Location())
	last := time.Date(rng.End.Year(), rng.End.Month(), 1, 0, 0, 0, 0, rng.End.Location())
	for !cur.After(last) {
		anchors = append(anchors, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return anchors
}
