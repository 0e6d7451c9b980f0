// Package params reads the path and query values every API handler shares:
// the calling actor, the department, object ids and the school year filter.
package params

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/memoria/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor returns the signed-in user as a yearbook actor. Without a user the
// actor is empty, which the service treats as a non-admin.
func Actor(r *http.Request) yearbook.Actor {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return yearbook.Actor{}
	}
	return yearbook.Actor{UserID: u.ID, Role: u.Role}
}

// Department parses the {department} path value. Aliases such as "shs" are
// accepted.
func Department(r *http.Request) (models.Department, error) {
	raw := chi.URLParam(r, "department")
	dept, err := models.ParseDepartment(raw)
	if err != nil {
		return "", apperr.Clone(apperr.ErrUnknownVariant, fmt.Sprintf("unknown department %q", raw))
	}
	return dept, nil
}

// ObjectID parses the named path value as a hex ObjectID. A malformed id
// cannot name anything, so it reports NotFound.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Clone(apperr.ErrNotFound, name+" is not a valid id")
	}
	return id, nil
}

// SchoolYear reads the optional school_year_id query value.
func SchoolYear(r *http.Request) (*primitive.ObjectID, error) {
	raw := query.Get(r, "school_year_id")
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Validation(nil, []string{"school_year_id"})
	}
	return &id, nil
}
