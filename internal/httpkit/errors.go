package httpkit

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the handlers and health checks care about.
const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUndefinedTable reports whether err is an undefined_table error,
// which the health check uses to flag an unapplied schema.
func IsUndefinedTable(err error) bool {
	return pgErrCode(err) == pgUndefinedTable
}

// IsUniqueViolation reports whether err is a unique constraint
// violation, mapped to 409 by the registry handlers.
func IsUniqueViolation(err error) bool {
	return pgErrCode(err) == pgUniqueViolation
}
