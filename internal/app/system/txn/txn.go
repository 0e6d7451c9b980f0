// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports it.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes returned when transactions are unavailable
// (standalone server, or an operation not allowed inside one).
var notSupportedCodes = map[int32]struct{}{
	20:  {}, // IllegalOperation
	51:  {}, // NotAReplicaSet / legacy
	263: {}, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the server cannot run
// transactions, as opposed to the transaction itself failing.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if _, ok := notSupportedCodes[ce.Code]; ok {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

// Run executes fn inside a transaction. When the server does not support
// transactions fn is run once more without one, so fn must be written to be
// correct either way (the database indexes remain the final guard).
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unavailable, running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}
