package yearbook

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RejectionReasonInput is the payload for CreateRejectionReason. A nil
// SchoolYearID makes the reason available in every year.
type RejectionReasonInput struct {
	Reason       string              `json:"reason" validate:"required,max=200"`
	Category     string              `json:"category" validate:"max=50"`
	SchoolYearID *primitive.ObjectID `json:"school_year_id,omitempty"`
}

// ListRejectionReasons returns the active reasons usable in syID (global ones
// included). A nil syID lists only global reasons.
func (s *Service) ListRejectionReasons(ctx context.Context, syID *primitive.ObjectID) ([]models.RejectionReason, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "rejection_reasons.list")
	defer cancel()

	out, err := s.reasons.List(ctx, syID, false)
	if err != nil {
		return nil, storeErr(err, "list rejection reasons")
	}
	return out, nil
}

// CreateRejectionReason adds a reason to the picklist.
func (s *Service) CreateRejectionReason(ctx context.Context, actor Actor, in RejectionReasonInput) (models.RejectionReason, error) {
	if err := requireAdmin(actor); err != nil {
		return models.RejectionReason{}, err
	}
	in.Reason = strings.TrimSpace(htmlsanitize.PlainText(in.Reason))
	in.Category = strings.ToLower(strings.TrimSpace(htmlsanitize.PlainText(in.Category)))
	if err := s.checkStruct(in); err != nil {
		return models.RejectionReason{}, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "rejection_reasons.create")
	defer cancel()

	if in.SchoolYearID != nil {
		if _, err := s.years.GetByID(ctx, *in.SchoolYearID); errors.Is(err, mongo.ErrNoDocuments) {
			return models.RejectionReason{}, apperr.ErrUnknownSchoolYear
		} else if err != nil {
			return models.RejectionReason{}, storeErr(err, "load school year")
		}
	}

	rr, err := s.reasons.Create(ctx, models.RejectionReason{
		Reason:       in.Reason,
		Category:     in.Category,
		SchoolYearID: in.SchoolYearID,
	})
	if err != nil {
		return models.RejectionReason{}, storeErr(err, "create rejection reason")
	}
	s.audit.ReasonCreated(ctx, actor.UserID, rr)
	return rr, nil
}

// DeactivateRejectionReason removes a reason from the picklist. Entries that
// already cite it are unchanged.
func (s *Service) DeactivateRejectionReason(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "rejection_reasons.deactivate")
	defer cancel()

	if err := s.reasons.Deactivate(ctx, id); err != nil {
		return storeErr(err, "deactivate rejection reason")
	}
	s.audit.ReasonDeactivated(ctx, actor.UserID, id)
	return nil
}
