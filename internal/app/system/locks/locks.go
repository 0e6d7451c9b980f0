// Package locks serializes check-then-write sequences on a key.
//
// The database unique indexes are what actually guarantee uniqueness; a lock
// just keeps two concurrent submissions for the same email or owner from both
// passing the pre-check and racing to the index, so the loser gets the precise
// error instead of a raw duplicate-key failure.
package locks

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNotAcquired is returned when a lock was still held by someone else when
// the context ended. The error also wraps the context's error. Any other
// Lock error means the lock backend itself failed.
var ErrNotAcquired = errors.New("lock not acquired")

func notAcquired(key string, ctxErr error) error {
	return fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctxErr)
}

// Locker acquires exclusive named locks.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the lock and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockAll acquires every key in sorted order so two callers asking for the
// same set cannot deadlock. Duplicate and empty keys are skipped. On failure
// any keys already taken are released.
func LockAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, k := range sorted {
		u, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return func() {}, err
		}
		unlocks = append(unlocks, u)
	}
	return release, nil
}
