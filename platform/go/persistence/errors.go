package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store-level sentinel errors. Services translate them into result codes.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateSlug    = errors.New("slug already in use")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrInvalidReference = errors.New("referenced record does not exist")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// classifyWriteError maps constraint failures raised by INSERT/UPDATE statements
// onto the store sentinels; anything else is returned untouched.
func classifyWriteError(err error) error {
	pgErr, ok := pgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if strings.HasSuffix(pgErr.ConstraintName, "_slug_key") {
			return errors.Join(ErrDuplicateSlug, err)
		}
		return errors.Join(ErrDuplicateEntry, err)
	case pgForeignKeyViolation:
		return errors.Join(ErrInvalidReference, err)
	default:
		return err
	}
}

// IsCheckViolation reports whether err was raised by a CHECK constraint.
func IsCheckViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgCheckViolation
}
