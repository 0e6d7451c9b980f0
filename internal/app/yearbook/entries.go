package yearbook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/memoria/internal/app/store/audit"
	entrystore "github.com/dalemusser/memoria/internal/app/store/entries"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/entryval"
	"github.com/dalemusser/memoria/internal/app/system/guard"
	"github.com/dalemusser/memoria/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memoria/internal/app/system/lifecycle"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EntryFilter narrows GetEntries.
type EntryFilter struct {
	Status  models.Status
	OwnedBy string
	Limit   int64
	Offset  int64
}

// EntryPage is one page of entries plus the total matching the filter.
type EntryPage struct {
	Entries []models.Entry `json:"entries"`
	Total   int64          `json:"total"`
}

// CreateEntry validates rec and stores it as a pending entry of dept.
//
// syID overrides any school_year_id in rec; pass NilObjectID to use the
// record's own. A non-admin actor becomes the entry's owner and may hold only
// one live profile per school year. Entries created by administrators have no
// owner.
func (s *Service) CreateEntry(ctx context.Context, actor Actor, dept models.Department, syID primitive.ObjectID, rec models.Record) (models.Entry, error) {
	e, err := s.createEntry(ctx, actor, dept, syID, rec, "")
	s.metrics.Mutation(string(dept), metrics.OpCreate, err)
	return e, err
}

func (s *Service) createEntry(ctx context.Context, actor Actor, dept models.Department, syID primitive.ObjectID, rec models.Record, batchID string) (models.Entry, error) {
	defer s.metrics.Time("entries.create")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.create")
	defer cancel()

	rec = cloneRecord(rec)
	if !syID.IsZero() {
		rec[models.FieldSchoolYearID] = syID.Hex()
	}
	htmlsanitize.Record(rec)

	sy, err := s.validator.Validate(ctx, dept, rec)
	if err != nil {
		return models.Entry{}, err
	}

	owner := ""
	if !actor.IsAdmin() {
		owner = actor.UserID
	}
	email, _ := rec[models.FieldEmail].(string)

	release, err := s.guard.Acquire(ctx, guard.EmailKey(dept, sy.ID, email), guard.OwnerKey(owner, sy.ID))
	if err != nil {
		return models.Entry{}, err
	}
	defer release()

	if err := s.guard.CheckEmail(ctx, dept, sy.ID, email, primitive.NilObjectID); err != nil {
		return models.Entry{}, err
	}
	if err := s.guard.CheckOwnership(ctx, owner, sy.ID); err != nil {
		return models.Entry{}, err
	}

	e := models.Entry{
		Department:   dept,
		SchoolYearID: sy.ID,
		SchoolYear:   sy.YearLabel,
		Status:       lifecycle.Initial,
		OwnedBy:      owner,
		CreatedBy:    actor.UserID,
	}
	e.Apply(rec)

	created, err := s.entries.Create(ctx, e)
	if err != nil {
		return models.Entry{}, storeErr(err, "create entry")
	}

	if owner != "" {
		_, err := s.owners.Create(ctx, models.ProfileOwnership{
			ProfileID:    created.ID,
			OwnedBy:      owner,
			SchoolYearID: sy.ID,
			Department:   dept,
			Status:       created.Status,
		})
		if err != nil {
			// an entry without its ownership row would let the owner create a second one
			if _, derr := s.entries.Delete(context.WithoutCancel(ctx), dept, created.ID); derr != nil {
				s.log.Error("failed to roll back entry after ownership failure",
					zap.String("entry_id", created.ID.Hex()), zap.Error(derr))
			}
			return models.Entry{}, storeErr(err, "record profile ownership")
		}
	}

	s.audit.EntryCreated(ctx, actor.UserID, created, batchID)
	return created, nil
}

// GetEntries lists dept's entries in syID, sorted by name.
func (s *Service) GetEntries(ctx context.Context, dept models.Department, syID primitive.ObjectID, f EntryFilter) (EntryPage, error) {
	if err := s.checkDepartment(dept); err != nil {
		return EntryPage{}, err
	}
	if f.Status != "" && !f.Status.IsValid() {
		return EntryPage{}, apperr.Validation(nil, []string{"status"})
	}
	defer s.metrics.Time("entries.list")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "entries.list")
	defer cancel()

	sf := entrystore.Filter{Status: f.Status, OwnedBy: f.OwnedBy, Limit: f.Limit, Offset: f.Offset}
	if !syID.IsZero() {
		sf.SchoolYearID = &syID
	}
	list, err := s.entries.List(ctx, dept, sf)
	if err != nil {
		return EntryPage{}, storeErr(err, "list entries")
	}
	total, err := s.entries.Count(ctx, dept, sf)
	if err != nil {
		return EntryPage{}, storeErr(err, "count entries")
	}
	return EntryPage{Entries: list, Total: total}, nil
}

// GetEntryByID loads one entry.
func (s *Service) GetEntryByID(ctx context.Context, dept models.Department, id primitive.ObjectID) (*models.Entry, error) {
	if err := s.checkDepartment(dept); err != nil {
		return nil, err
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "entries.get")
	defer cancel()

	e, err := s.entries.GetByID(ctx, dept, id)
	if err != nil {
		return nil, storeErr(err, "load entry")
	}
	return e, nil
}

// UpdateEntry merges patch into the entry and revalidates the result. A nil
// value in patch removes that field. Owners may only edit their own entries;
// an owner edit of a reviewed entry sends it back to pending.
func (s *Service) UpdateEntry(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID, patch models.Record) (models.Entry, error) {
	e, err := s.updateEntry(ctx, actor, dept, id, patch, "")
	s.metrics.Mutation(string(dept), metrics.OpUpdate, err)
	return e, err
}

func (s *Service) updateEntry(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID, patch models.Record, batchID string) (models.Entry, error) {
	if err := s.checkDepartment(dept); err != nil {
		return models.Entry{}, err
	}
	desc, _ := s.reg.Lookup(dept)
	defer s.metrics.Time("entries.update")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.update")
	defer cancel()

	cur, err := s.entries.GetByID(ctx, dept, id)
	if err != nil {
		return models.Entry{}, storeErr(err, "load entry")
	}
	if !actor.IsAdmin() && (cur.OwnedBy == "" || cur.OwnedBy != actor.UserID) {
		return models.Entry{}, apperr.Clone(apperr.ErrForbidden, "you can only edit your own entry")
	}
	nextStatus, err := lifecycle.EditStatus(cur.Status, actor.IsAdmin())
	if err != nil {
		return models.Entry{}, err
	}

	patch = cloneRecord(patch)
	htmlsanitize.Record(patch)
	if v, ok := patch[models.FieldSchoolYearID]; ok && v != nil {
		if pid, err := entryval.ParseObjectID(v); err != nil || pid != cur.SchoolYearID {
			ve := apperr.Validation(nil, []string{models.FieldSchoolYearID})
			ve.Message = "an entry cannot move to another school year"
			return models.Entry{}, ve
		}
	}

	merged := cur.ToRecord()
	for k, v := range patch {
		if models.IsSystemField(k) || k == models.FieldSchoolYearID {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	sy, err := s.validator.Validate(ctx, dept, merged)
	if err != nil {
		return models.Entry{}, err
	}
	email, _ := merged[models.FieldEmail].(string)

	release, err := s.guard.Acquire(ctx, guard.EmailKey(dept, sy.ID, email))
	if err != nil {
		return models.Entry{}, err
	}
	defer release()

	if email != cur.Email {
		if err := s.guard.CheckEmail(ctx, dept, sy.ID, email, cur.ID); err != nil {
			return models.Entry{}, err
		}
	}

	prev := cur.ToRecord()
	s.validator.CheckFields(desc, prev)
	changed := changedFields(prev, merged)

	next := *cur
	next.Apply(merged)
	next.SchoolYear = sy.YearLabel
	if nextStatus != cur.Status {
		next.Status = nextStatus
		next.RejectionReasons = nil
		next.CustomReason = ""
		next.ReviewedBy = ""
		next.ReviewedAt = nil
	}

	updated, err := s.entries.Replace(ctx, next, cur.UpdatedAt)
	if err != nil {
		return models.Entry{}, storeErr(err, "update entry")
	}

	if updated.Status != cur.Status && updated.OwnedBy != "" {
		s.syncOwnership(ctx, updated.ID, updated.Status)
	}
	s.audit.EntryUpdated(ctx, actor.UserID, updated, changed, cur.Status, batchID)
	return updated, nil
}

// DeleteEntry removes an entry together with its ownership row and audit
// trail. Deleting a missing entry reports false with no error.
func (s *Service) DeleteEntry(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID) (bool, error) {
	ok, err := s.deleteEntry(ctx, actor, dept, id)
	s.metrics.Mutation(string(dept), metrics.OpDelete, err)
	return ok, err
}

func (s *Service) deleteEntry(ctx context.Context, actor Actor, dept models.Department, id primitive.ObjectID) (bool, error) {
	if err := s.checkDepartment(dept); err != nil {
		return false, err
	}
	if err := requireAdmin(actor); err != nil {
		return false, err
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.delete")
	defer cancel()

	cur, err := s.entries.GetByID(ctx, dept, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, "load entry")
	}

	deleted, err := s.entries.Delete(ctx, dept, id)
	if err != nil {
		return false, storeErr(err, "delete entry")
	}
	if !deleted {
		return false, nil
	}

	if cur.OwnedBy != "" {
		if err := s.owners.DeleteByProfile(ctx, id); err != nil {
			s.log.Error("failed to delete profile ownership",
				zap.String("entry_id", id.Hex()), zap.Error(err))
		}
	}
	if s.auditRead != nil {
		if _, err := s.auditRead.DeleteByTarget(ctx, audit.TargetEntry, id.Hex()); err != nil {
			s.log.Warn("failed to delete entry audit trail",
				zap.String("entry_id", id.Hex()), zap.Error(err))
		}
	}
	s.audit.EntryDeleted(ctx, actor.UserID, *cur)
	return true, nil
}

// Search finds dept's entries whose searchable fields contain term.
func (s *Service) Search(ctx context.Context, dept models.Department, syID *primitive.ObjectID, term string) ([]models.Entry, error) {
	if err := s.checkDepartment(dept); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(htmlsanitize.PlainText(term))
	if term == "" {
		return nil, apperr.Validation([]string{"q"}, nil)
	}
	defer s.metrics.Time("entries.search")()
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "entries.search")
	defer cancel()

	out, err := s.entries.Search(ctx, dept, syID, term, SearchLimit)
	if err != nil {
		return nil, storeErr(err, "search entries")
	}
	return out, nil
}

// ListMyEntries returns the actor's own entries across every department,
// optionally within one school year.
func (s *Service) ListMyEntries(ctx context.Context, actor Actor, syID *primitive.ObjectID) ([]models.Entry, error) {
	if actor.UserID == "" {
		return nil, apperr.ErrUnauthorized
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "entries.mine")
	defer cancel()

	owned, err := s.owners.ListByOwner(ctx, actor.UserID, syID)
	if err != nil {
		return nil, storeErr(err, "list owned profiles")
	}

	byDept := map[models.Department][]primitive.ObjectID{}
	for _, o := range owned {
		byDept[o.Department] = append(byDept[o.Department], o.ProfileID)
	}

	out := []models.Entry{}
	for _, dept := range s.reg.Departments() {
		ids := byDept[dept]
		if len(ids) == 0 {
			continue
		}
		list, err := s.entries.List(ctx, dept, entrystore.Filter{IDs: ids})
		if err != nil {
			return nil, storeErr(err, "list entries")
		}
		out = append(out, list...)
	}
	return out, nil
}

func (s *Service) syncOwnership(ctx context.Context, id primitive.ObjectID, status models.Status) {
	if err := s.owners.SyncStatus(ctx, id, status); err != nil {
		s.log.Error("failed to sync profile ownership status",
			zap.String("entry_id", id.Hex()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

// changedFields lists keys whose values differ between two normalized
// records, sorted.
func changedFields(before, after models.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(k string) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for k, v := range after {
		if old, ok := before[k]; !ok || fmt.Sprint(old) != fmt.Sprint(v) {
			add(k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			add(k)
		}
	}
	sort.Strings(out)
	return out
}
