package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartbank/ledger/internal/domain"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
	pgErrLockNotAvail    = "55P03"
)

// mapPgError translates low-level PostgreSQL failures into domain errors.
// Unrecognized errors pass through for the use case layer to classify.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		if strings.Contains(pgErr.ConstraintName, "idempotency") {
			return domain.ErrDuplicateIdempotencyKey
		}
		if strings.Contains(pgErr.ConstraintName, "account_number") {
			return domain.ErrAccountNumberTaken
		}
	case pgErrCheckViolation:
		if strings.Contains(pgErr.ConstraintName, "balance") {
			return domain.ErrNegativeBalance
		}
	case pgErrLockNotAvail:
		return domain.ErrLockTimeout
	}

	return err
}
