// Package txn runs a group of MongoDB writes inside a transaction when the
// deployment supports one, and sequentially when it does not.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on client. On a standalone server
// (no replica set) the transaction is rejected; fn is then run once more
// without a session so callers get the same sequence of writes either way.
//
// fn must be safe to re-run: WithTransaction retries transient errors.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions not supported; running sequentially", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err says the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transaction numbers require a replica set
			51,  // legacy illegal operation
			263: // OperationNotSupportedInTransaction
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
