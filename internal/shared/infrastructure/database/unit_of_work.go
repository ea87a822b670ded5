package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned when Commit or Rollback runs outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// txScope is the transaction a context carries. Only the unit that opened
// the transaction finishes it.
type txScope struct {
	tx    Transaction
	owner bool
}

func txFromContext(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// InTransaction reports whether ctx carries an open unit of work.
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// ExecutorFromContext returns the open transaction of ctx, or conn when none is open.
// Repositories call it for every statement so they join the caller's unit of work.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if scope, ok := txFromContext(ctx); ok {
		return scope.tx
	}
	return conn
}

// GenericUnitOfWork implements application.UnitOfWork for any registered driver.
// Nested units join the outer transaction.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin starts or joins a transaction and returns a context carrying it.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := txFromContext(ctx); ok {
		return context.WithValue(ctx, txKey{}, txScope{tx: outer.tx}), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txScope{tx: tx, owner: true}), nil
}

// Commit commits the transaction if this unit opened it.
func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	return finish(ctx, Transaction.Commit)
}

// Rollback rolls back the transaction if this unit opened it.
func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	return finish(ctx, Transaction.Rollback)
}

func finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	scope, ok := txFromContext(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		return nil
	}
	return end(scope.tx, ctx)
}
