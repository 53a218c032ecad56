package db

import (
	"context"
	"database/sql"
	"fmt"
)

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn with an engine bound to a new transaction.
// If fn returns an error, the transaction is rolled back.
// If fn panics, the transaction is rolled back and the panic is re-raised.
// If fn succeeds, the transaction is committed.
func (e *Engine) WithTx(ctx context.Context, fn func(tx *Engine) error) error {
	conn, err := e.connection()
	if err != nil {
		return err
	}
	beginner, ok := conn.(txBeginner)
	if !ok {
		return fmt.Errorf("%w: connection cannot begin a transaction", ErrInvalidOperation)
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreError(err)
	}

	txEngine := &Engine{
		conn:         tx,
		dialect:      e.dialect,
		logger:       e.logger,
		queryTimeout: e.queryTimeout,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txEngine); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapStoreError(err)
	}
	return nil
}
