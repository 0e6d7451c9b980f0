package yearbook

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SchoolYearInput is the payload for CreateSchoolYear.
type SchoolYearInput struct {
	YearLabel string    `json:"year_label" validate:"required,len=9"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Activate  bool      `json:"activate"`
}

// ListSchoolYears returns every school year, newest first.
func (s *Service) ListSchoolYears(ctx context.Context) ([]models.SchoolYear, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "school_years.list")
	defer cancel()

	out, err := s.years.List(ctx)
	if err != nil {
		return nil, storeErr(err, "list school years")
	}
	return out, nil
}

// GetActiveSchoolYear returns the current school year.
func (s *Service) GetActiveSchoolYear(ctx context.Context) (*models.SchoolYear, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "school_years.active")
	defer cancel()

	sy, err := s.years.GetActive(ctx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Clone(apperr.ErrNotFound, "no school year is active")
	}
	if err != nil {
		return nil, storeErr(err, "load active school year")
	}
	return sy, nil
}

// CreateSchoolYear adds a school year such as "2024-2025" and optionally
// makes it the active one.
func (s *Service) CreateSchoolYear(ctx context.Context, actor Actor, in SchoolYearInput) (models.SchoolYear, error) {
	if err := requireAdmin(actor); err != nil {
		return models.SchoolYear{}, err
	}
	in.YearLabel = strings.TrimSpace(in.YearLabel)
	if err := s.checkStruct(in); err != nil {
		return models.SchoolYear{}, err
	}
	if !validYearLabel(in.YearLabel) {
		ve := apperr.Validation(nil, []string{"year_label"})
		ve.Message = "year_label must look like 2024-2025"
		return models.SchoolYear{}, ve
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "school_years.create")
	defer cancel()

	sy, err := s.years.Create(ctx, models.SchoolYear{
		YearLabel: in.YearLabel,
		StartDate: in.StartDate.UTC(),
		EndDate:   in.EndDate.UTC(),
	})
	if err != nil {
		return models.SchoolYear{}, storeErr(err, "create school year")
	}
	s.audit.SchoolYearCreated(ctx, actor.UserID, sy)

	if in.Activate {
		active, err := s.years.Activate(ctx, sy.ID)
		if err != nil {
			return sy, storeErr(err, "activate school year")
		}
		s.audit.SchoolYearActivated(ctx, actor.UserID, *active)
		return *active, nil
	}
	return sy, nil
}

// ActivateSchoolYear makes id the only active school year.
func (s *Service) ActivateSchoolYear(ctx context.Context, actor Actor, id primitive.ObjectID) (models.SchoolYear, error) {
	if err := requireAdmin(actor); err != nil {
		return models.SchoolYear{}, err
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "school_years.activate")
	defer cancel()

	sy, err := s.years.Activate(ctx, id)
	if err != nil {
		return models.SchoolYear{}, storeErr(err, "activate school year")
	}
	s.audit.SchoolYearActivated(ctx, actor.UserID, *sy)
	return *sy, nil
}

// validYearLabel accepts "YYYY-YYYY" where the second year follows the first.
func validYearLabel(label string) bool {
	first, second, ok := strings.Cut(label, "-")
	if !ok || len(first) != 4 || len(second) != 4 {
		return false
	}
	a, err1 := strconv.Atoi(first)
	b, err2 := strconv.Atoi(second)
	return err1 == nil && err2 == nil && b == a+1
}

// checkStruct runs validator tags and reports failing fields by json name.
func (s *Service) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(err, apperr.ErrValidation, "")
	}
	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	return apperr.Validation(missing, invalid)
}
