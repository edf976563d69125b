package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/evolutech/platform/internal/domain"
)

// PostgreSQL SQLSTATE codes surfaced as constraint errors.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// wrapErr annotates err with op and translates driver errors into domain
// errors: no rows becomes domain.ErrNotFound and constraint violations become
// *domain.ConstraintError carrying the server's message unchanged.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation, codeUniqueViolation, codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%s: %w", op, &domain.ConstraintError{
				Code:       pgErr.Code,
				Constraint: pgErr.ConstraintName,
				Message:    pgErr.Message,
			})
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
