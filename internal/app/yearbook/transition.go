package yearbook

import (
	"context"
	"errors"
	"fmt"

	entrystore "github.com/dalemusser/memoria/internal/app/store/entries"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/lifecycle"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/notify"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RejectionInput carries the reasons for a rejection.
type RejectionInput = lifecycle.Rejection

// TransitionStatus moves an entry to status to.
//
// Administrators may make any move the state machine allows. An owner may
// only resubmit their own rejected entry (rejected -> pending). Rejections
// need at least one active reason applicable to the entry's school year or a
// custom reason.
func (s *Service) TransitionStatus(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID, to models.Status, rej *RejectionInput) (models.Entry, error) {
	e, err := s.transition(ctx, actor, dept, id, to, rej)
	s.metrics.Mutation(string(dept), metrics.OpTransition, err)
	return e, err
}

func (s *Service) transition(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID, to models.Status, rej *RejectionInput) (models.Entry, error) {
	if err := s.checkDepartment(dept); err != nil {
		return models.Entry{}, err
	}
	if !to.IsValid() {
		return models.Entry{}, apperr.Validation(nil, []string{"status"})
	}
	defer s.metrics.Time("entries.transition")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.transition")
	defer cancel()

	cur, err := s.entries.GetByID(ctx, dept, id)
	if err != nil {
		return models.Entry{}, storeErr(err, "load entry")
	}
	if !actor.IsAdmin() {
		if cur.OwnedBy == "" || cur.OwnedBy != actor.UserID {
			return models.Entry{}, apperr.Clone(apperr.ErrForbidden, "only administrators can review entries")
		}
		if cur.Status != models.StatusRejected || to != models.StatusPending {
			return models.Entry{}, apperr.Clone(apperr.ErrForbidden, "owners can only resubmit a rejected entry")
		}
	}

	if rej != nil {
		r := *rej
		r.Normalize()
		rej = &r
	}
	if err := lifecycle.Check(cur.Status, to, rej); err != nil {
		return models.Entry{}, err
	}

	ch := entrystore.StatusChange{From: cur.Status, To: to, ReviewedBy: actor.UserID}
	var reasonText []string
	if to == models.StatusRejected {
		reasons, err := s.resolveReasons(ctx, cur.SchoolYearID, rej.ReasonIDs)
		if err != nil {
			return models.Entry{}, err
		}
		for _, r := range reasons {
			reasonText = append(reasonText, r.Reason)
		}
		ch.RejectionReasons = rej.ReasonIDs
		ch.CustomReason = rej.CustomReason
	}

	ok, at, err := s.entries.SetStatus(ctx, dept, id, ch)
	if err != nil {
		return models.Entry{}, storeErr(err, "change entry status")
	}
	if !ok {
		return models.Entry{}, s.lostRace(ctx, dept, id, cur.Status)
	}

	updated := *cur
	updated.Status = to
	updated.UpdatedAt = at
	updated.ReviewedBy = actor.UserID
	updated.ReviewedAt = &at
	updated.RejectionReasons = ch.RejectionReasons
	updated.CustomReason = ch.CustomReason

	if updated.OwnedBy != "" {
		s.syncOwnership(ctx, id, to)
	}
	s.audit.StatusChanged(ctx, actor.UserID, updated, cur.Status, to, ch.RejectionReasons, ch.CustomReason)

	ev := notify.StatusChanged{
		EntryID:      id.Hex(),
		Department:   dept,
		SchoolYear:   updated.SchoolYear,
		FullName:     updated.FullName,
		OwnedBy:      updated.OwnedBy,
		From:         cur.Status,
		To:           to,
		ReviewedBy:   actor.UserID,
		Reasons:      reasonText,
		CustomReason: ch.CustomReason,
		At:           at,
	}
	if err := s.notifier.StatusChanged(ctx, ev); err != nil {
		s.log.Warn("status notification failed", zap.String("entry_id", id.Hex()), zap.Error(err))
	}
	return updated, nil
}

// lostRace explains why a compare-and-set status write matched nothing.
func (s *Service) lostRace(ctx context.Context, dept models.Department, id primitive.ObjectID, expected models.Status) error {
	now, err := s.entries.GetByID(ctx, dept, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Clone(apperr.ErrNotFound, "entry was deleted")
	}
	if err != nil {
		return storeErr(err, "reload entry")
	}
	return apperr.Clone(apperr.ErrInvalidTransition,
		fmt.Sprintf("entry status changed from %s to %s by someone else", expected, now.Status))
}

// resolveReasons loads ids and checks each is active and usable for syID.
func (s *Service) resolveReasons(ctx context.Context, syID primitive.ObjectID, ids []string) ([]models.RejectionReason, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	invalid := apperr.Validation(nil, []string{"rejection_reasons"})

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, invalid
		}
		oids = append(oids, oid)
	}

	found, err := s.reasons.GetByIDs(ctx, oids)
	if err != nil {
		return nil, storeErr(err, "load rejection reasons")
	}
	byID := make(map[primitive.ObjectID]models.RejectionReason, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}

	out := make([]models.RejectionReason, 0, len(oids))
	for _, oid := range oids {
		r, ok := byID[oid]
		if !ok || !r.IsActive || !r.AppliesTo(syID) {
			return nil, invalid
		}
		out = append(out, r)
	}
	return out, nil
}
