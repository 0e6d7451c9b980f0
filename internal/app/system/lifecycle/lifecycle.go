// Package lifecycle defines the entry status state machine.
//
//	pending  -> approved | rejected | archived
//	approved -> rejected | archived
//	rejected -> approved | pending | archived
//	archived -> (terminal)
//
// A transition to the current status is never allowed.
package lifecycle

import (
	"strings"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/domain/models"
)

var transitions = map[models.Status][]models.Status{
	models.StatusPending:  {models.StatusApproved, models.StatusRejected, models.StatusArchived},
	models.StatusApproved: {models.StatusRejected, models.StatusArchived},
	models.StatusRejected: {models.StatusApproved, models.StatusPending, models.StatusArchived},
}

// Initial is the status every new entry starts in.
const Initial = models.StatusPending

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s.
func Next(s models.Status) []models.Status {
	out := make([]models.Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.Status) bool {
	return len(transitions[s]) == 0
}

// Rejection is the justification that accompanies a move to rejected.
type Rejection struct {
	ReasonIDs    []string `json:"rejection_reasons"`
	CustomReason string   `json:"custom_reason"`
}

// Empty reports whether r carries no usable reason.
func (r *Rejection) Empty() bool {
	if r == nil {
		return true
	}
	return len(compact(r.ReasonIDs)) == 0 && strings.TrimSpace(r.CustomReason) == ""
}

// Check validates a requested transition. It returns ErrInvalidTransition for
// disallowed moves and ErrMissingRejectionReason when rejecting without a
// reason. Reason ids are not resolved here.
func Check(from, to models.Status, rej *Rejection) error {
	if !to.IsValid() || !CanTransition(from, to) {
		return apperr.Clone(apperr.ErrInvalidTransition, "cannot move entry from "+string(from)+" to "+string(to))
	}
	if to == models.StatusRejected && rej.Empty() {
		return apperr.ErrMissingRejectionReason
	}
	return nil
}

// EditStatus returns the status an entry should have after its content is
// edited. Owner edits of reviewed entries send them back for review; admin
// edits leave the status alone. Archived entries cannot be edited.
func EditStatus(current models.Status, byAdmin bool) (models.Status, error) {
	switch {
	case current == models.StatusArchived:
		return current, apperr.Clone(apperr.ErrInvalidTransition, "archived entries cannot be edited")
	case byAdmin:
		return current, nil
	case current == models.StatusApproved, current == models.StatusRejected:
		return models.StatusPending, nil
	}
	return current, nil
}

// Normalize trims reason ids and drops blanks and duplicates, keeping order.
func (r *Rejection) Normalize() {
	if r == nil {
		return
	}
	r.ReasonIDs = compact(r.ReasonIDs)
	r.CustomReason = strings.TrimSpace(r.CustomReason)
}

func compact(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
