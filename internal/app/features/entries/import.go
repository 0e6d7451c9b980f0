package entries

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/features/shared/params"
	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/csvutil"
	"github.com/dalemusser/memoria/internal/app/system/respond"
	"github.com/dalemusser/memoria/internal/domain/models"
)

// ServeImport handles POST /entries/{department}/import?school_year_id=.
//
// The body is either a multipart form with a "csv" file or a raw text/csv
// payload. Rows without a school_year_id column go into the given year, or
// the active one. A file with bad rows is rejected whole; otherwise every row
// is created through the bulk path and reported with its file line.
func (h *Handler) ServeImport(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	file, err := csvBody(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	defer file.Close()

	parsed, err := csvutil.ParseEntries(file, csvutil.ParseOptions{MaxRows: min(csvutil.MaxRows, MaxBulkItems)})
	switch {
	case errors.Is(err, csvutil.ErrTooManyRows):
		respond.Error(w, h.Log, apperr.Clone(apperr.ErrValidation, "too many rows in one import"))
		return
	case err != nil:
		respond.Error(w, h.Log, apperr.Wrap(err, apperr.ErrValidation, "CSV file could not be parsed: "+err.Error()))
		return
	}
	if parsed.HasErrors() {
		respond.Error(w, h.Log, apperr.Clone(apperr.ErrValidation, csvutil.FormatRowErrors(parsed.Errors, 5)))
		return
	}
	if err := checkBulkSize(len(parsed.Records)); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if syID == nil {
		sy, err := h.Svc.GetActiveSchoolYear(r.Context())
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		syID = &sy.ID
	}
	for _, rec := range parsed.Records {
		if _, has := rec[models.FieldSchoolYearID]; !has {
			rec[models.FieldSchoolYearID] = syID.Hex()
		}
	}

	rep, err := h.Svc.BulkCreate(r.Context(), params.Actor(r), dept, parsed.Records)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	out := toBulkResponse(rep)
	for i := range out.Results {
		if idx := out.Results[i].Index; idx >= 0 && idx < len(parsed.Lines) {
			out.Results[i].Line = parsed.Lines[idx]
		}
	}
	respond.OK(w, out)
}

// csvBody returns the uploaded CSV from a multipart "csv" field or, for any
// other content type, the request body itself.
func csvBody(r *http.Request) (io.ReadCloser, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return r.Body, nil
	}
	file, _, err := r.FormFile("csv")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Clone(apperr.ErrValidation, "CSV file is too large")
		}
		return nil, apperr.Clone(apperr.ErrValidation, "CSV file is required")
	}
	return file, nil
}
