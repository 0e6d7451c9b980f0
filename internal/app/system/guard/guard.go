// Package guard enforces the two uniqueness rules of the yearbook: one entry
// per email per school year in each department, and one live profile per
// owner per school year across all departments.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"github.com/dalemusser/memoria/internal/app/system/locks"
	"github.com/dalemusser/memoria/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EntryFinder looks up an entry by email, ignoring excludeID.
type EntryFinder interface {
	FindByEmail(ctx context.Context, dept models.Department, syID primitive.ObjectID, email string, excludeID primitive.ObjectID) (*models.Entry, error)
}

// OwnershipFinder looks up an owner's live profile for a school year.
type OwnershipFinder interface {
	FindLive(ctx context.Context, ownedBy string, syID primitive.ObjectID) (*models.ProfileOwnership, error)
}

type Guard struct {
	entries EntryFinder
	owners  OwnershipFinder
	locker  locks.Locker
}

// New returns a Guard. A nil locker falls back to an in-process one.
func New(entries EntryFinder, owners OwnershipFinder, locker locks.Locker) *Guard {
	if locker == nil {
		locker = locks.NewLocal()
	}
	return &Guard{entries: entries, owners: owners, locker: locker}
}

// EmailKey is the lock key for an email within a department and year.
func EmailKey(dept models.Department, syID primitive.ObjectID, email string) string {
	if email == "" {
		return ""
	}
	return fmt.Sprintf("email:%s:%s:%s", dept, syID.Hex(), email)
}

// OwnerKey is the lock key for an owner's profile slot in a year.
func OwnerKey(ownedBy string, syID primitive.ObjectID) string {
	if ownedBy == "" {
		return ""
	}
	return fmt.Sprintf("owner:%s:%s", ownedBy, syID.Hex())
}

// Acquire holds every non-empty key until the returned func is called. A
// key still held elsewhere when ctx ends is ErrConflict; a failing lock
// backend is ErrStoreUnavailable.
func (g *Guard) Acquire(ctx context.Context, keys ...string) (func(), error) {
	release, err := locks.LockAll(ctx, g.locker, keys...)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, locks.ErrNotAcquired):
		return release, apperr.Wrap(err, apperr.ErrConflict, "another change to this entry is in progress")
	default:
		return release, apperr.Wrap(err, apperr.ErrStoreUnavailable, "lock service unavailable")
	}
}

// CheckEmail fails with ErrDuplicateEmail when another entry in the same
// department and year already uses email.
func (g *Guard) CheckEmail(ctx context.Context, dept models.Department, syID primitive.ObjectID, email string, excludeID primitive.ObjectID) error {
	_, err := g.entries.FindByEmail(ctx, dept, syID, email, excludeID)
	switch {
	case err == nil:
		return apperr.Clone(apperr.ErrDuplicateEmail, fmt.Sprintf("%s is already used by another entry this school year", email))
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	default:
		return apperr.Wrap(err, apperr.ErrStoreUnavailable, "failed to check email uniqueness")
	}
}

// CheckOwnership fails with ErrProfileAlreadyExists when ownedBy already has
// a live profile in syID. Entries created without an owner are not checked.
func (g *Guard) CheckOwnership(ctx context.Context, ownedBy string, syID primitive.ObjectID) error {
	if ownedBy == "" {
		return nil
	}
	_, err := g.owners.FindLive(ctx, ownedBy, syID)
	switch {
	case err == nil:
		return apperr.ErrProfileAlreadyExists
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	default:
		return apperr.Wrap(err, apperr.ErrStoreUnavailable, "failed to check profile ownership")
	}
}
