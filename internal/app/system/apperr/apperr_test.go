package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "entry not found")
	if !errors.Is(err, ErrNotFound) {
		t.Error("clone should match its sentinel")
	}
	if errors.Is(err, ErrDuplicateEmail) {
		t.Error("clone should not match a different sentinel")
	}

	wrapped := fmt.Errorf("loading: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("fmt-wrapped clone should still match")
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, ErrStoreUnavailable, "")
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if err.Status != http.StatusServiceUnavailable {
		t.Errorf("status: got %d", err.Status)
	}
	if err.Message != ErrStoreUnavailable.Message {
		t.Errorf("message: got %q", err.Message)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("nil in, nil out")
	}
	plain := FromError(errors.New("boom"))
	if plain.Code != ErrInternal.Code {
		t.Errorf("plain error should map to internal, got %s", plain.Code)
	}
	typed := FromError(fmt.Errorf("ctx: %w", ErrInvalidTransition))
	if typed.Code != ErrInvalidTransition.Code {
		t.Errorf("typed error lost: %s", typed.Code)
	}
}

func TestValidation_ListsAllFields(t *testing.T) {
	err := Validation([]string{"full_name", "email"}, []string{"age"})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation error")
	}
	if len(err.Fields.Missing) != 2 || len(err.Fields.Invalid) != 1 {
		t.Errorf("fields: %+v", err.Fields)
	}
	if ErrValidation.Fields != nil {
		t.Error("sentinel must not be mutated")
	}
}
