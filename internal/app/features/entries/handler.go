// internal/app/features/entries/handler.go
package entries

import (
	"context"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/paging"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the part of the yearbook engine the entry routes use.
type Service interface {
	CreateEntry(ctx context.Context, actor yearbook.Actor, dept models.Department, syID primitive.ObjectID, rec models.Record) (models.Entry, error)
	GetEntries(ctx context.Context, dept models.Department, syID primitive.ObjectID, f yearbook.EntryFilter) (yearbook.EntryPage, error)
	GetEntryByID(ctx context.Context, dept models.Department, id primitive.ObjectID) (*models.Entry, error)
	UpdateEntry(ctx context.Context, actor yearbook.Actor, dept models.Department, id primitive.ObjectID, patch models.Record) (models.Entry, error)
	DeleteEntry(ctx context.Context, actor yearbook.Actor, dept models.Department, id primitive.ObjectID) (bool, error)
	TransitionStatus(ctx context.Context, actor yearbook.Actor, dept models.Department, id primitive.ObjectID, to models.Status, rej *yearbook.RejectionInput) (models.Entry, error)
	BulkCreate(ctx context.Context, actor yearbook.Actor, dept models.Department, records []models.Record) (yearbook.BulkReport, error)
	BulkUpdate(ctx context.Context, actor yearbook.Actor, dept models.Department, patches []yearbook.BulkPatch) (yearbook.BulkReport, error)
	Search(ctx context.Context, dept models.Department, syID *primitive.ObjectID, term string) ([]models.Entry, error)
	EntryAuditTrail(ctx context.Context, dept models.Department, id primitive.ObjectID) ([]models.AuditLogEntry, error)
	GetActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error)
}

type Handler struct {
	Svc Service
	Log *zap.Logger
}

// NewHandler constructs the entries feature handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Log: logger}
}

// schoolYearOrActive returns the requested school year, falling back to the
// active one.
func (h *Handler) schoolYearOrActive(r *http.Request) (primitive.ObjectID, error) {
	syID, err := params.SchoolYear(r)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if syID != nil {
		return *syID, nil
	}
	sy, err := h.Svc.GetActiveSchoolYear(r.Context())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return sy.ID, nil
}

// ServeList handles GET /entries/{department}.
//
// Query: school_year_id (default: active year), status, owned_by, limit, offset.
// Non-admins only list approved entries unless owned_by is themselves.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	dept, err := params.Department(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	page, err := paging.Parse(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	syID, err := h.schoolYearOrActive(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	filter := yearbook.EntryFilter{
		Status:  models.Status(query.Get(r, "status")),
		OwnedBy: query.Get(r, "owned_by"),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	if actor := params.Actor(r); !actor.IsAdmin() && filter.OwnedBy != actor.UserID {
		filter.Status = models.StatusApproved
	}

	res, err := h.Svc.GetEntries(r.Context(), dept, syID, filter)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res.Entries, page.Meta(res.Total, len(res.Entries)))
}

// ServeCreate handles POST /entries/{department}. The body is the flat entry
// record; without a school_year_id the active year is used.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	dept, err := params.Department(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var rec models.Record
	if err := respond.Decode(r, &rec); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if rec == nil {
		respond.Error(w, h.Log, apperr.Clone(apperr.ErrValidation, "request body must be a JSON object"))
		return
	}

	syID := primitive.NilObjectID
	if _, has := rec[models.FieldSchoolYearID]; !has {
		sy, err := h.Svc.GetActiveSchoolYear(r.Context())
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		syID = sy.ID
	}

	e, err := h.Svc.CreateEntry(r.Context(), params.Actor(r), dept, syID, rec)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.Created(w, e)
}

// ServeSearch handles GET /entries/{department}/search?q=&school_year_id=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	dept, err := params.Department(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	syID, err := params.SchoolYear(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out, err := h.Svc.Search(r.Context(), dept, syID, query.Get(r, "q"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor := params.Actor(r)
	visible := out[:0]
	for _, e := range out {
		if actor.CanView(e) {
			visible = append(visible, e)
		}
	}
	out = visible
	respond.JSON(w, http.StatusOK, out, map[string]any{"count": len(out)})
}

// deptAndID reads both path values every per-entry route needs.
func deptAndID(r *http.Request) (models.Department, primitive.ObjectID, error) {
	dept, err := params.Department(r)
	if err != nil {
		return "", primitive.NilObjectID, err
	}
	id, err := params.ObjectID(r, "id")
	return dept, id, err
}

// ServeGet handles GET /entries/{department}/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	dept, id, err := deptAndID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	e, err := h.Svc.GetEntryByID(r.Context(), dept, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !params.Actor(r).CanView(*e) {
		// same answer as a missing entry
		respond.Error(w, h.Log, apperr.Clone(apperr.ErrNotFound, "entry not found"))
		return
	}
	respond.OK(w, e)
}

// ServeUpdate handles PATCH /entries/{department}/{id}. A null value removes
// the field.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	dept, id, err := deptAndID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var patch models.Record
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	e, err := h.Svc.UpdateEntry(r.Context(), params.Actor(r), dept, id, patch)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, e)
}

// ServeDelete handles DELETE /entries/{department}/{id}. Deleting an entry
// that does not exist answers 200 with deleted=false.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	dept, id, err := deptAndID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ok, err := h.Svc.DeleteEntry(r.Context(), params.Actor(r), dept, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]bool{"deleted": ok})
}

type statusRequest struct {
	Status models.Status `json:"status"`
	yearbook.RejectionInput
}

// ServeStatus handles POST /entries/{department}/{id}/status.
//
//	{ "status": "rejected", "rejection_reasons": ["..."], "custom_reason": "..." }
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	dept, id, err := deptAndID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req statusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if req.Status == "" {
		respond.Error(w, h.Log, apperr.Validation([]string{"status"}, nil))
		return
	}
	e, err := h.Svc.TransitionStatus(r.Context(), params.Actor(r), dept, id, req.Status, &req.RejectionInput)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, e)
}

// ServeAudit handles GET /entries/{department}/{id}/audit.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	dept, id, err := deptAndID(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	trail, err := h.Svc.EntryAuditTrail(r.Context(), dept, id)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, trail)
}
