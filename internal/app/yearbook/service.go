// Package yearbook is the entry lifecycle engine: it validates submissions
// against their department schema, enforces email and ownership uniqueness,
// drives the review state machine and keeps the audit trail.
package yearbook

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	entrystore "github.com/dalemusser/memoria/internal/app/store/entries"
	"github.com/dalemusser/memoria/internal/app/store/ownership"
	"github.com/dalemusser/memoria/internal/app/store/schoolyears"
	"github.com/dalemusser/memoria/internal/app/store/storeutil"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/auditlog"
	"github.com/dalemusser/memoria/internal/app/system/authz"
	"github.com/dalemusser/memoria/internal/app/system/entryval"
	"github.com/dalemusser/memoria/internal/app/system/guard"
	"github.com/dalemusser/memoria/internal/app/system/locks"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/notify"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Actor is the caller of a mutating operation, as established by the
// identity provider.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor may review entries.
func (a Actor) IsAdmin() bool { return authz.IsAdminRole(a.Role) }

// CanView reports whether the actor may read e. Admins see everything,
// owners see their own entries and everyone else sees approved ones only.
func (a Actor) CanView(e models.Entry) bool {
	switch {
	case a.IsAdmin(), e.Status == models.StatusApproved:
		return true
	default:
		return a.UserID != "" && e.OwnedBy == a.UserID
	}
}

// EntryStore is the persistence the engine needs for entries.
type EntryStore interface {
	guard.EntryFinder
	Create(ctx context.Context, e models.Entry) (models.Entry, error)
	GetByID(ctx context.Context, dept models.Department, id primitive.ObjectID) (*models.Entry, error)
	List(ctx context.Context, dept models.Department, f entrystore.Filter) ([]models.Entry, error)
	Count(ctx context.Context, dept models.Department, f entrystore.Filter) (int64, error)
	Search(ctx context.Context, dept models.Department, syID *primitive.ObjectID, term string, limit int64) ([]models.Entry, error)
	Replace(ctx context.Context, e models.Entry, readAt time.Time) (models.Entry, error)
	SetStatus(ctx context.Context, dept models.Department, id primitive.ObjectID, ch entrystore.StatusChange) (bool, time.Time, error)
	Delete(ctx context.Context, dept models.Department, id primitive.ObjectID) (bool, error)
	CountByStatus(ctx context.Context, dept models.Department, syID *primitive.ObjectID) (entrystore.StatusCounts, error)
}

// OwnershipStore maintains the owner projection.
type OwnershipStore interface {
	guard.OwnershipFinder
	Create(ctx context.Context, o models.ProfileOwnership) (models.ProfileOwnership, error)
	ListByOwner(ctx context.Context, ownedBy string, syID *primitive.ObjectID) ([]models.ProfileOwnership, error)
	SyncStatus(ctx context.Context, profileID primitive.ObjectID, status models.Status) error
	DeleteByProfile(ctx context.Context, profileID primitive.ObjectID) error
}

// SchoolYearStore persists school years.
type SchoolYearStore interface {
	entryval.SchoolYearFinder
	Create(ctx context.Context, sy models.SchoolYear) (models.SchoolYear, error)
	GetActive(ctx context.Context) (*models.SchoolYear, error)
	List(ctx context.Context) ([]models.SchoolYear, error)
	Activate(ctx context.Context, id primitive.ObjectID) (*models.SchoolYear, error)
}

// ReasonStore persists the rejection reason picklist.
type ReasonStore interface {
	Create(ctx context.Context, rr models.RejectionReason) (models.RejectionReason, error)
	List(ctx context.Context, syID *primitive.ObjectID, includeInactive bool) ([]models.RejectionReason, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.RejectionReason, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// AuditStore reads and prunes the audit trail. Writes go through auditlog.
type AuditStore interface {
	ListByTarget(ctx context.Context, targetType, targetID string, limit int64) ([]models.AuditLogEntry, error)
	DeleteByTarget(ctx context.Context, targetType, targetID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Deps wires a Service. Registry and the stores are required; everything
// else has a usable default.
type Deps struct {
	Registry    *schema.Registry
	Entries     EntryStore
	Ownership   OwnershipStore
	SchoolYears SchoolYearStore
	Reasons     ReasonStore
	Audit       AuditStore

	AuditLog    *auditlog.Logger
	Notifier    notify.Notifier
	Locker      locks.Locker
	Metrics     *metrics.Metrics
	Validate    *validator.Validate
	Logger      *zap.Logger
	BulkWorkers int
}

// DefaultBulkWorkers bounds bulk concurrency when Deps.BulkWorkers is unset.
const DefaultBulkWorkers = 4

// SearchLimit caps search results.
const SearchLimit = 100

type Service struct {
	reg       *schema.Registry
	entries   EntryStore
	owners    OwnershipStore
	years     SchoolYearStore
	reasons   ReasonStore
	auditRead AuditStore

	audit     *auditlog.Logger
	notifier  notify.Notifier
	guard     *guard.Guard
	validator *entryval.Validator
	validate  *validator.Validate
	metrics   *metrics.Metrics
	log       *zap.Logger
	workers   int
}

// New builds a Service from d.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	v := d.Validate
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	v.RegisterTagNameFunc(jsonFieldName)

	n := d.Notifier
	if n == nil {
		n = notify.NewLog(log)
	}
	workers := d.BulkWorkers
	if workers <= 0 {
		workers = DefaultBulkWorkers
	}

	return &Service{
		reg:       d.Registry,
		entries:   d.Entries,
		owners:    d.Ownership,
		years:     d.SchoolYears,
		reasons:   d.Reasons,
		auditRead: d.Audit,
		audit:     d.AuditLog,
		notifier:  n,
		guard:     guard.New(d.Entries, d.Ownership, d.Locker),
		validator: entryval.New(d.Registry, d.SchoolYears, v),
		validate:  v,
		metrics:   d.Metrics,
		log:       log,
		workers:   workers,
	}
}

// Registry returns the schema registry the service validates against.
func (s *Service) Registry() *schema.Registry { return s.reg }

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// checkDepartment fails with ErrUnknownVariant for unregistered departments.
func (s *Service) checkDepartment(dept models.Department) error {
	if _, err := s.reg.Lookup(dept); err != nil {
		return apperr.Clone(apperr.ErrUnknownVariant, "unknown department \""+string(dept)+"\"")
	}
	return nil
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return apperr.Clone(apperr.ErrForbidden, "administrator role required")
	}
	return nil
}

// storeErr maps store and driver errors onto the engine's error taxonomy.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Clone(apperr.ErrNotFound, what+": not found")
	case errors.Is(err, entrystore.ErrDuplicateEmail):
		return apperr.ErrDuplicateEmail
	case errors.Is(err, ownership.ErrProfileExists):
		return apperr.ErrProfileAlreadyExists
	case errors.Is(err, schoolyears.ErrDuplicateLabel):
		return apperr.Wrap(err, apperr.ErrConflict, err.Error())
	case errors.Is(err, entrystore.ErrStale):
		return apperr.Wrap(err, apperr.ErrConflict, "entry was changed by someone else; reload and try again")
	case errors.Is(err, schema.ErrUnknownDepartment):
		return apperr.Wrap(err, apperr.ErrUnknownVariant, "")
	case storeutil.IsUnavailable(err), errors.Is(err, context.Canceled):
		return apperr.Wrap(err, apperr.ErrStoreUnavailable, "failed to "+what)
	}
	return apperr.Wrap(err, apperr.ErrInternal, "failed to "+what)
}

func cloneRecord(rec models.Record) models.Record {
	out := make(models.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
