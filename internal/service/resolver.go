package service

import (
	"context"
	"time"

	"github.com/nafa-hr/attendance-api/internal/models"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
)

type leaveCoverageReader interface {
	ExistsApprovedCovering(ctx context.Context, userID string, date time.Time) (bool, error)
}

type dayOffCoverageReader interface {
	ExistsOnDate(ctx context.Context, userID string, date time.Time) (bool, error)
}

type permissionCoverageReader interface {
	ExistsApproved(ctx context.Context, userID string, date time.Time, permType models.PermissionType) (bool, error)
}

// StatusResolver decides a user's attendance status for a date. Precedence
// is strict, first match wins: approved leave, then day-off, then approved
// full-day permission, then absent. Late and early-leave permissions never
// influence the status, only the lateness arithmetic.
type StatusResolver struct {
	leaves      leaveCoverageReader
	dayOffs     dayOffCoverageReader
	permissions permissionCoverageReader
}

// NewStatusResolver constructs the resolver.
func NewStatusResolver(leaves leaveCoverageReader, dayOffs dayOffCoverageReader, permissions permissionCoverageReader) *StatusResolver {
	return &StatusResolver{leaves: leaves, dayOffs: dayOffs, permissions: permissions}
}

// ResolveStatus evaluates the precedence chain for one user and date.
func (r *StatusResolver) ResolveStatus(ctx context.Context, userID string, date time.Time) (models.AttendanceStatus, error) {
	onLeave, err := r.leaves.ExistsApprovedCovering(ctx, userID, date)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check leave coverage")
	}
	if onLeave {
		return models.AttendanceOnLeave, nil
	}

	dayOff, err := r.dayOffs.ExistsOnDate(ctx, userID, date)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check day off")
	}
	if dayOff {
		return models.AttendanceDayOff, nil
	}

	missing, err := r.permissions.ExistsApproved(ctx, userID, date, models.PermissionMissing)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check permission coverage")
	}
	if missing {
		return models.AttendancePermission, nil
	}

	return models.AttendanceAbsent, nil
}
