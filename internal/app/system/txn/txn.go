// Package txn runs multi-document writes atomically.
//
// On a replica set or sharded cluster the callback runs inside a Mongo
// transaction and either every write commits or none does. Standalone
// servers cannot run transactions; there the callback runs once without
// one and the caller gets best-effort ordering only. Development setups
// commonly use a standalone mongod, so the fallback is logged rather than
// treated as fatal.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes callbacks in a transaction on client.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New creates a Runner. A nil client runs callbacks directly.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn atomically. fn must use the context it is given for every
// database call so the writes join the transaction.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.client == nil {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.log.Warn("transactions unavailable; running without", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Warn("transactions unavailable; running without", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the deployment is a standalone
// server that cannot run transactions. Other transaction failures,
// including operations that are illegal inside a transaction, are real
// errors and must not be retried without one.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 20 { // IllegalOperation
		return strings.Contains(strings.ToLower(ce.Message), "replica set")
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transaction numbers") && strings.Contains(msg, "replica set")
}
