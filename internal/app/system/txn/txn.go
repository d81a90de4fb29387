// Package txn runs multi-document writes inside a MongoDB transaction when the
// deployment supports one, and falls back to sequential writes when it does not
// (standalone servers have no sessions with transactions).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning "transactions are unavailable here".
var unsupportedCodes = map[int32]struct{}{
	20:  {}, // IllegalOperation: Transaction numbers are only allowed on a replica set member or mongos
	51:  {}, // IllegalOperation variants on some versions
	263: {}, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the server cannot run transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if _, ok := unsupportedCodes[ce.Code]; ok {
			return true
		}
	}
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

// Runner executes a unit of work, transactionally when possible.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New returns a Runner. A nil client always runs the work without a transaction.
func New(client *mongo.Client, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{client: client, log: log}
}

// Do runs fn. When the server supports transactions fn runs inside one and the
// returned bool is true. When it does not, fn runs once with the plain context
// and each write commits on its own; the bool is false so callers can treat
// follow-up writes as best effort.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	if r == nil || r.client == nil {
		return false, fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return false, fn(ctx)
		}
		return false, err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Debug("transactions unavailable, running sequentially")
		return false, fn(ctx)
	}
	return err == nil, err
}

// InTxn reports whether ctx carries a session, which inside Do means the work
// is running in a transaction and an error will roll it back.
func InTxn(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}
