// Package txn runs multi-collection writes inside a Mongo transaction when
// the deployment supports one, and falls back to running the writes
// directly when it does not (standalone servers have no transactions).
//
// The fallback keeps local development on a plain mongod working at the
// cost of atomicity: a crash mid-callback can leave a partial cascade,
// which is the pre-transaction behavior of the app.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn within a session transaction on db's client. If the
// server reports that transactions are unsupported, fn is re-run outside a
// transaction.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			logger.Debug("transactions unsupported; running writes directly", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logger.Debug("transactions unsupported; running writes directly", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// Server error codes that indicate the deployment cannot run transactions.
//
//	20  IllegalOperation (e.g. "Transaction numbers are only allowed on a
//	    replica set member or mongos")
//	51  command not supported in this context
//	263 OperationNotSupportedInTransaction
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means the server cannot run
// transactions (as opposed to the transaction failing for a real reason).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if ce, ok := err.(mongo.CommandError); ok {
		cmdErr = ce
	} else if ce, ok := unwrapCommandError(err); ok {
		cmdErr = ce
	}
	if notSupportedCodes[cmdErr.Code] {
		return true
	}

	// Driver and server phrasing varies; look for keyword pairs that only
	// appear together in "no transactions here" messages.
	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal operation", "transaction"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}

func unwrapCommandError(err error) (mongo.CommandError, bool) {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(mongo.CommandError); ok {
			return ce, true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return mongo.CommandError{}, false
		}
		err = u.Unwrap()
	}
	return mongo.CommandError{}, false
}
