// Package storeutil holds helpers shared by the Mongo stores.
package storeutil

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// Now returns the current UTC time at the millisecond precision Mongo stores,
// so a value written and read back compares equal.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// IsUnavailable reports whether err means the database could not be reached
// (network failure, server selection failure, or deadline) rather than a
// problem with the request itself.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var sel topology.ServerSelectionError
	return errors.As(err, &sel)
}

// RetryRead runs fn and, if it fails with a network error while ctx is still
// live, runs it exactly once more. Only idempotent reads may use it.
func RetryRead[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || ctx.Err() != nil || !mongo.IsNetworkError(err) {
		return v, err
	}
	return fn(ctx)
}
