package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockledger/internal/core/apperror"
)

// PostgreSQL error codes we translate into the platform taxonomy.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeSerializationFail   = "40001"
	pgCodeDeadlockDetected    = "40P01"
)

// TranslateError maps driver-level errors onto AppError codes so domain
// callers never see raw pgconn errors. Unknown errors pass through
// unchanged (they are wrapped higher up).
//
// Serialization failures and deadlocks become TransactionConflict: the
// ledger runs under repeatable-read, so a concurrent writer on the same
// inventory row aborts one of the transactions rather than losing an
// update. The caller retries from a fresh read.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgCodeUniqueViolation:
		return apperror.NewDuplicate(pgErr.TableName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case pgCodeSerializationFail, pgCodeDeadlockDetected:
		return apperror.NewTransactionConflict(err)
	case pgCodeForeignKeyViolation:
		return apperror.NewConflict("Record is referenced by other data").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}

	return err
}
