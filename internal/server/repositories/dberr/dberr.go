// Package dberr turns driver-specific constraint violations into the
// project's sentinel errors so services can tell "already taken" and
// "missing owner" apart from infrastructure failures.
package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/basicsite/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classifier maps a raw driver error to a wrapped sentinel, or returns nil
// when the error is not a constraint violation it knows about.
type Classifier func(err error) error

// Postgres classifies errors returned by the pgx stdlib driver.
func Postgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", common.ErrorForeignKey, pgErr.ConstraintName)
	}
	return nil
}

// SQLite classifies errors returned by modernc.org/sqlite.
func SQLite(err error) error {
	var sErr *sqlite.Error
	if !errors.As(err, &sErr) {
		return nil
	}
	switch sErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %v", common.ErrorConflict, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %v", common.ErrorForeignKey, err)
	case sqlite3.SQLITE_CONSTRAINT:
		// extended codes disabled on this connection
		msg := sErr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return fmt.Errorf("%w: %v", common.ErrorConflict, err)
		case strings.Contains(msg, "FOREIGN KEY"):
			return fmt.Errorf("%w: %v", common.ErrorForeignKey, err)
		}
	}
	return nil
}

// Wrap returns the classified sentinel when classify recognizes err, and a
// generic "db error" wrap otherwise.
func Wrap(classify Classifier, err error) error {
	if classified := classify(err); classified != nil {
		return classified
	}
	return fmt.Errorf("db error: %w", err)
}
