// internal/domain/models/status.go
package models

// Status is the approval state of an Entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusArchived}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}
