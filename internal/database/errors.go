package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the application distinguishes. Everything else
// is passed through untouched.
const (
	pgUndefinedTable  = "42P01"
	pgInvalidSchema   = "3F000"
	pgUniqueViolation = "23505"
)

var (
	// ErrSchemaMissing marks errors caused by the workspace tables not
	// existing yet. Callers degrade to local fallback mode on it
	// instead of failing.
	ErrSchemaMissing = errors.New("relation does not exist")

	// ErrUniqueViolation marks unique-constraint failures, surfaced to
	// users as duplicate-name or duplicate-invite conditions.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// classify wraps raw driver errors with the sentinel the rest of the
// application branches on. It is the only place error codes are
// inspected.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgInvalidSchema:
			return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.Message)
		}
	}
	return err
}
