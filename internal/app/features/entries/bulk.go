package entries

import (
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
)

// MaxBulkItems caps one bulk request.
const MaxBulkItems = 500

type bulkCreateRequest struct {
	Records []models.Record `json:"records"`
}

type bulkUpdateRequest struct {
	Items []yearbook.BulkPatch `json:"items"`
}

type bulkItem struct {
	Index int           `json:"index"`
	Line  int           `json:"line,omitempty"` // CSV imports only
	OK    bool          `json:"ok"`
	Entry *models.Entry `json:"entry,omitempty"`
	Error *apperr.Error `json:"error,omitempty"`
}

type bulkResponse struct {
	BatchID   string     `json:"batch_id"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Results   []bulkItem `json:"results"`
}

func toBulkResponse(rep yearbook.BulkReport) bulkResponse {
	out := bulkResponse{
		BatchID:   rep.BatchID,
		Succeeded: rep.Succeeded,
		Failed:    rep.Failed,
		Results:   make([]bulkItem, len(rep.Results)),
	}
	for i, res := range rep.Results {
		item := bulkItem{Index: res.Index, OK: res.Err == nil, Entry: res.Entry}
		if res.Err != nil {
			item.Error = apperr.FromError(res.Err)
		}
		out.Results[i] = item
	}
	return out
}

func checkBulkSize(n int) error {
	if n == 0 {
		return apperr.Clone(apperr.ErrValidation, "no items given")
	}
	if n > MaxBulkItems {
		return apperr.Clone(apperr.ErrValidation, "too many items in one request")
	}
	return nil
}

// ServeBulkCreate handles POST /entries/{department}/bulk.
//
//	{ "records": [ {...}, {...} ] }
//
// Each record must carry its own school_year_id. The response lists every
// item's outcome in input order; a failed item does not fail the request.
func (h *Handler) ServeBulkCreate(w http.ResponseWriter, r *http.Request) {
	dept, err := params.Department(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req bulkCreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := checkBulkSize(len(req.Records)); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rep, err := h.Svc.BulkCreate(r.Context(), params.Actor(r), dept, req.Records)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, toBulkResponse(rep))
}

// ServeBulkUpdate handles PATCH /entries/{department}/bulk.
//
//	{ "items": [ {"id": "...", "patch": {...}} ] }
func (h *Handler) ServeBulkUpdate(w http.ResponseWriter, r *http.Request) {
	dept, err := params.Department(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var req bulkUpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := checkBulkSize(len(req.Items)); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rep, err := h.Svc.BulkUpdate(r.Context(), params.Actor(r), dept, req.Items)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, toBulkResponse(rep))
}
