package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/operativa/gestionale/internal"
)

const uniqueViolationCode = "23505"

// ConflictFrom translates a unique violation into a domain conflict error
// carrying the constraint name; any other error passes through unchanged.
// Uniqueness races (two inserts on the same natural key) are settled by the
// database, never by application locks.
func ConflictFrom(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return internal.NewConflictError(
			fmt.Sprintf("duplicate value for %s", pgErr.ConstraintName),
			internal.ErrCodeDuplicateKey,
		).WithCause(err)
	}
	return err
}
