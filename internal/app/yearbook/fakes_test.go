package yearbook

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	entrystore "github.com/dalemusser/memoria/internal/app/store/entries"
	"github.com/dalemusser/memoria/internal/app/store/ownership"
	"github.com/dalemusser/memoria/internal/app/store/schoolyears"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// fakeEntries mimics the Mongo entry store, including the
// (school_year_id, email) unique index over live entries.
type fakeEntries struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Entry
	err  error

	// beforeSetStatus runs just before the status compare-and-set.
	beforeSetStatus func(id primitive.ObjectID)
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{docs: map[primitive.ObjectID]models.Entry{}}
}

func (f *fakeEntries) dupEmail(e models.Entry) bool {
	for id, d := range f.docs {
		if id != e.ID && d.Department == e.Department && d.SchoolYearID == e.SchoolYearID && d.Email == e.Email &&
			d.Status != models.StatusArchived && e.Status != models.StatusArchived {
			return true
		}
	}
	return false
}

func (f *fakeEntries) Create(_ context.Context, e models.Entry) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Entry{}, f.err
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if f.dupEmail(e) {
		return models.Entry{}, entrystore.ErrDuplicateEmail
	}
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	e.FullNameCI = strings.ToLower(e.FullName)
	f.docs[e.ID] = e
	return e, nil
}

func (f *fakeEntries) GetByID(_ context.Context, dept models.Department, id primitive.ObjectID) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.docs[id]
	if !ok || e.Department != dept {
		return nil, mongo.ErrNoDocuments
	}
	return &e, nil
}

func (f *fakeEntries) FindByEmail(_ context.Context, dept models.Department, syID primitive.ObjectID, email string, excludeID primitive.ObjectID) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for id, e := range f.docs {
		if id != excludeID && e.Department == dept && e.SchoolYearID == syID && e.Email == email && e.Status != models.StatusArchived {
			return &e, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeEntries) match(dept models.Department, flt entrystore.Filter) []models.Entry {
	var ids map[primitive.ObjectID]bool
	if flt.IDs != nil {
		ids = map[primitive.ObjectID]bool{}
		for _, id := range flt.IDs {
			ids[id] = true
		}
	}
	out := []models.Entry{}
	for _, e := range f.docs {
		switch {
		case e.Department != dept,
			flt.SchoolYearID != nil && e.SchoolYearID != *flt.SchoolYearID,
			flt.Status != "" && e.Status != flt.Status,
			flt.OwnedBy != "" && e.OwnedBy != flt.OwnedBy,
			ids != nil && !ids[e.ID]:
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullNameCI < out[j].FullNameCI })
	return out
}

func (f *fakeEntries) List(_ context.Context, dept models.Department, flt entrystore.Filter) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := f.match(dept, flt)
	if flt.Offset > 0 {
		if int(flt.Offset) >= len(out) {
			return []models.Entry{}, nil
		}
		out = out[flt.Offset:]
	}
	if flt.Limit > 0 && int(flt.Limit) < len(out) {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeEntries) Count(_ context.Context, dept models.Department, flt entrystore.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.match(dept, flt))), nil
}

func (f *fakeEntries) Search(_ context.Context, dept models.Department, syID *primitive.ObjectID, term string, _ int64) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	term = strings.ToLower(term)
	out := []models.Entry{}
	for _, e := range f.match(dept, entrystore.Filter{SchoolYearID: syID}) {
		if strings.Contains(strings.ToLower(e.FullName), term) || strings.Contains(e.Email, term) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntries) Replace(_ context.Context, e models.Entry, readAt time.Time) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Entry{}, f.err
	}
	cur, ok := f.docs[e.ID]
	if !ok {
		return models.Entry{}, mongo.ErrNoDocuments
	}
	if !cur.UpdatedAt.Equal(readAt) {
		return models.Entry{}, entrystore.ErrStale
	}
	if f.dupEmail(e) {
		return models.Entry{}, entrystore.ErrDuplicateEmail
	}
	e.UpdatedAt = now().Add(time.Millisecond)
	e.FullNameCI = strings.ToLower(e.FullName)
	f.docs[e.ID] = e
	return e, nil
}

func (f *fakeEntries) SetStatus(_ context.Context, dept models.Department, id primitive.ObjectID, ch entrystore.StatusChange) (bool, time.Time, error) {
	if f.beforeSetStatus != nil {
		f.beforeSetStatus(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, time.Time{}, f.err
	}
	e, ok := f.docs[id]
	if !ok || e.Department != dept || e.Status != ch.From {
		return false, time.Time{}, nil
	}
	at := now()
	e.Status = ch.To
	e.UpdatedAt = at
	e.ReviewedBy = ch.ReviewedBy
	e.ReviewedAt = &at
	e.RejectionReasons = ch.RejectionReasons
	e.CustomReason = ch.CustomReason
	f.docs[id] = e
	return true, at, nil
}

func (f *fakeEntries) Delete(_ context.Context, dept models.Department, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	e, ok := f.docs[id]
	if !ok || e.Department != dept {
		return false, nil
	}
	delete(f.docs, id)
	return true, nil
}

func (f *fakeEntries) CountByStatus(_ context.Context, dept models.Department, syID *primitive.ObjectID) (entrystore.StatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := entrystore.StatusCounts{}
	for _, e := range f.match(dept, entrystore.Filter{SchoolYearID: syID}) {
		out[e.Status]++
	}
	return out, nil
}

// setStatus changes a stored entry behind the service's back.
func (f *fakeEntries) setStatus(id primitive.ObjectID, st models.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.docs[id]
	e.Status = st
	f.docs[id] = e
}

func (f *fakeEntries) remove(id primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
}

func (f *fakeEntries) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// fakeOwnership mimics the partial unique index on live (owned_by, school_year_id).
type fakeOwnership struct {
	mu        sync.Mutex
	rows      []models.ProfileOwnership
	createErr error
}

func (f *fakeOwnership) Create(_ context.Context, o models.ProfileOwnership) (models.ProfileOwnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.ProfileOwnership{}, f.createErr
	}
	o.Archived = o.Status == models.StatusArchived
	for _, r := range f.rows {
		if !r.Archived && !o.Archived && r.OwnedBy == o.OwnedBy && r.SchoolYearID == o.SchoolYearID {
			return models.ProfileOwnership{}, ownership.ErrProfileExists
		}
	}
	o.ID = primitive.NewObjectID()
	f.rows = append(f.rows, o)
	return o, nil
}

func (f *fakeOwnership) FindLive(_ context.Context, ownedBy string, syID primitive.ObjectID) (*models.ProfileOwnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if !r.Archived && r.OwnedBy == ownedBy && r.SchoolYearID == syID {
			return &r, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeOwnership) ListByOwner(_ context.Context, ownedBy string, syID *primitive.ObjectID) ([]models.ProfileOwnership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ProfileOwnership{}
	for _, r := range f.rows {
		if r.OwnedBy == ownedBy && (syID == nil || r.SchoolYearID == *syID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeOwnership) SyncStatus(_ context.Context, profileID primitive.ObjectID, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ProfileID == profileID {
			f.rows[i].Status = status
			f.rows[i].Archived = status == models.StatusArchived
		}
	}
	return nil
}

func (f *fakeOwnership) DeleteByProfile(_ context.Context, profileID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.ProfileID != profileID {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeOwnership) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeYears struct {
	mu    sync.Mutex
	years map[primitive.ObjectID]models.SchoolYear
}

func (f *fakeYears) Create(_ context.Context, sy models.SchoolYear) (models.SchoolYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, y := range f.years {
		if y.YearLabel == sy.YearLabel {
			return models.SchoolYear{}, schoolyears.ErrDuplicateLabel
		}
	}
	sy.ID = primitive.NewObjectID()
	sy.IsActive = false
	sy.CreatedAt = now()
	sy.UpdatedAt = sy.CreatedAt
	f.years[sy.ID] = sy
	return sy, nil
}

func (f *fakeYears) GetByID(_ context.Context, id primitive.ObjectID) (*models.SchoolYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sy, ok := f.years[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &sy, nil
}

func (f *fakeYears) GetActive(_ context.Context) (*models.SchoolYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sy := range f.years {
		if sy.IsActive {
			return &sy, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeYears) List(_ context.Context) ([]models.SchoolYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SchoolYear{}
	for _, sy := range f.years {
		out = append(out, sy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeYears) Activate(_ context.Context, id primitive.ObjectID) (*models.SchoolYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.years[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for k, sy := range f.years {
		sy.IsActive = false
		f.years[k] = sy
	}
	target.IsActive = true
	f.years[id] = target
	return &target, nil
}

type fakeReasons struct {
	mu      sync.Mutex
	reasons map[primitive.ObjectID]models.RejectionReason
}

func (f *fakeReasons) add(reason string, syID *primitive.ObjectID, active bool) models.RejectionReason {
	f.mu.Lock()
	defer f.mu.Unlock()
	rr := models.RejectionReason{ID: primitive.NewObjectID(), Reason: reason, IsActive: active, SchoolYearID: syID}
	f.reasons[rr.ID] = rr
	return rr
}

func (f *fakeReasons) Create(_ context.Context, rr models.RejectionReason) (models.RejectionReason, error) {
	rr.IsActive = true
	rr.ID = primitive.NewObjectID()
	f.mu.Lock()
	f.reasons[rr.ID] = rr
	f.mu.Unlock()
	return rr, nil
}

func (f *fakeReasons) List(_ context.Context, syID *primitive.ObjectID, includeInactive bool) ([]models.RejectionReason, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RejectionReason{}
	for _, r := range f.reasons {
		if !includeInactive && !r.IsActive {
			continue
		}
		if r.SchoolYearID == nil || (syID != nil && *r.SchoolYearID == *syID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReasons) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.RejectionReason, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.RejectionReason{}
	for _, id := range ids {
		if r, ok := f.reasons[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReasons) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reasons[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	r.IsActive = false
	f.reasons[id] = r
	return nil
}

// fakeAudit is both the auditlog writer and the audit reader.
type fakeAudit struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	failLog bool
}

func (f *fakeAudit) Log(_ context.Context, e models.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLog {
		return context.DeadlineExceeded
	}
	e.ID = primitive.NewObjectID()
	e.CreatedAt = now()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) ListByTarget(_ context.Context, targetType, targetID string, _ int64) ([]models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AuditLogEntry{}
	for _, e := range f.entries {
		if e.TargetType == targetType && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAudit) DeleteByTarget(_ context.Context, targetType, targetID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.TargetType == targetType && e.TargetID == targetID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

func (f *fakeAudit) DeleteByUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.UserID == userID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

func (f *fakeAudit) byAction(action string) []models.AuditLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range f.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
