package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type txContextKey struct{}

type scopedTx struct {
	tx        *sqlx.Tx
	isolation sql.IsolationLevel
}

var (
	ErrAlreadyInTx = errors.New("already executing in existing db tx")
	ErrNotInTx     = errors.New("not executing in existing db tx")
)

// ExecuteTxWithinCtx opens a DB transaction that lives for the duration of fn
// and travels with the context handed to it. Store calls made with that
// context through ExecuteInTx join the transaction. It commits when fn
// returns nil and rolls back otherwise.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if ctx.Value(txContextKey{}) != nil {
		return ErrAlreadyInTx
	}

	isolation = normalizeIsolation(isolation)
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, txContextKey{}, &scopedTx{tx: tx, isolation: isolation})
	return finish(tx, fn(ctx))
}

// ExecuteInTx runs fn against the transaction carried by ctx, or against a new
// transaction it owns when there is none.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	isolation = normalizeIsolation(isolation)

	tx, err := TxFromCtx(ctx, isolation)
	switch err {
	case nil:
		return fn(tx)
	case ErrNotInTx:
	default:
		return err
	}

	tx, err = db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return err
	}
	return finish(tx, fn(tx))
}

// TxFromCtx returns the transaction started by ExecuteTxWithinCtx, provided it
// runs at least at the desired isolation level.
func TxFromCtx(ctx context.Context, desiredIsolation sql.IsolationLevel) (*sqlx.Tx, error) {
	value := ctx.Value(txContextKey{})
	if value == nil {
		return nil, ErrNotInTx
	}

	scoped, ok := value.(*scopedTx)
	if !ok {
		return nil, errors.New("invalid type for tx")
	}

	if scoped.isolation < normalizeIsolation(desiredIsolation) {
		return nil, errors.New("current tx doesn't meet isolation level requirements")
	}

	return scoped.tx, nil
}

// finish always ends tx so sql.DB releases the connection.
func finish(tx *sqlx.Tx, fnErr error) error {
	if fnErr != nil {
		if err := tx.Rollback(); err != nil {
			return errors.Wrap(err, "failed to rollback transaction")
		}
		return fnErr
	}
	return tx.Commit()
}

func normalizeIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted // Postgres default
	}
	return isolation
}
