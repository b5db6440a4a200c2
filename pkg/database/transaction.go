package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type txContextKey struct{}

type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transaction is a sqlx.Tx bound to a context. A transaction joined from
// the context is owned by the outer caller, so Commit and Rollback on it
// are no-ops.
type Transaction struct {
	*sqlx.Tx
	logger ectologger.Logger
	joined bool
	done   bool
}

// GetTx joins the transaction carried by ctx or begins one and stores it in
// the returned context.
func GetTx(ctx context.Context, logger ectologger.Logger, db DB, opts *sql.TxOptions) (context.Context, Tx, error) {
	if outer, ok := ctx.Value(txContextKey{}).(*Transaction); ok && !outer.done {
		return ctx, &Transaction{Tx: outer.Tx, logger: logger, joined: true}, nil
	}

	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return ctx, nil, errors.Wrap(err, "failed to begin transaction")
	}
	t := &Transaction{Tx: tx, logger: logger}
	return context.WithValue(ctx, txContextKey{}, t), t, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, db DB, fn func(ctx context.Context, tx Tx) error) error {
	ctx, tx, err := db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.joined || t.done {
		return nil
	}
	t.done = true
	if err := t.Tx.Rollback(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to roll back transaction")
		return errors.Wrap(err, "failed to roll back transaction")
	}
	return nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.joined || t.done {
		return nil
	}
	t.done = true
	if err := t.Tx.Commit(); err != nil {
		t.logger.WithContext(ctx).WithError(err).Error("Failed to commit transaction")
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
