package httpkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPgErrorHelpers(t *testing.T) {
	undefinedTable := &pgconn.PgError{Code: "42P01", Message: `relation "files" does not exist`}
	uniqueViolation := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

	if !IsUndefinedTable(undefinedTable) {
		t.Error("42P01 should be reported as undefined table")
	}
	if !IsUndefinedTable(fmt.Errorf("query failed: %w", undefinedTable)) {
		t.Error("IsUndefinedTable should see through wrapping")
	}
	if IsUndefinedTable(uniqueViolation) {
		t.Error("23505 is not an undefined table error")
	}

	if !IsUniqueViolation(uniqueViolation) {
		t.Error("23505 should be reported as unique violation")
	}
	if IsUniqueViolation(undefinedTable) {
		t.Error("42P01 is not a unique violation")
	}

	if IsUndefinedTable(errors.New("plain")) || IsUniqueViolation(errors.New("plain")) {
		t.Error("plain errors carry no pg code")
	}
	if IsUndefinedTable(nil) || IsUniqueViolation(nil) {
		t.Error("nil carries no pg code")
	}
}
