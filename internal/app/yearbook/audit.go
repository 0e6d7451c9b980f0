package yearbook

import (
	"context"
	"strings"

	"github.com/dalemusser/memoria/internal/app/store/audit"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AuditTrailLimit caps EntryAuditTrail.
const AuditTrailLimit = 500

// EntryAuditTrail returns the audit entries of one entry, oldest first.
func (s *Service) EntryAuditTrail(ctx context.Context, dept models.Department, id primitive.ObjectID) ([]models.AuditLogEntry, error) {
	if err := s.checkDepartment(dept); err != nil {
		return nil, err
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "audit.trail")
	defer cancel()

	out, err := s.auditRead.ListByTarget(ctx, audit.TargetEntry, id.Hex(), AuditTrailLimit)
	if err != nil {
		return nil, storeErr(err, "load audit trail")
	}
	return out, nil
}

// PurgeUserAuditTrail deletes every audit entry written by userID, for
// accounts that have been removed. It returns how many were deleted.
func (s *Service) PurgeUserAuditTrail(ctx context.Context, actor Actor, userID string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperr.Validation([]string{"user_id"}, nil)
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "audit.purge_user")
	defer cancel()

	n, err := s.auditRead.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, storeErr(err, "purge audit trail")
	}
	s.log.Info("purged user audit trail",
		zap.String("user_id", userID),
		zap.String("actor_id", actor.UserID),
		zap.Int64("deleted", n))
	return n, nil
}
