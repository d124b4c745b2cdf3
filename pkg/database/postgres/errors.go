package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// IsNoRows reports whether a single row query found nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsConflict reports whether postgres aborted the transaction because it
// couldn't be serialized against a concurrent one.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	default:
		return false
	}
}

// CheckNoRows translates sql.ErrNoRows into outErr.
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

// CheckConflict translates serialization failures into outErr.
func CheckConflict(inErr, outErr error) error {
	if IsConflict(inErr) {
		return outErr
	}
	return inErr
}
