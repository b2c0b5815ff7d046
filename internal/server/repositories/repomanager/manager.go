// Package repomanager vends dialect-specific repository implementations bound
// to a dbx.DBTX, so services can run the same code against *sql.DB or inside
// a transaction.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/filex"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/migrations"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// New returns the manager for dialect (migrations.DialectPostgres or
// migrations.DialectSQLite).
func New(dialect string, logger logging.Logger) (RepositoryManager, error) {
	switch dialect {
	case migrations.DialectPostgres:
		return NewPostgresRepositoryManager(logger), nil
	case migrations.DialectSQLite:
		return NewSQLiteRepositoryManager(logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}
}

// DriverName maps a dialect to the database/sql driver registered for it.
func DriverName(dialect string) (string, error) {
	switch dialect {
	case migrations.DialectPostgres:
		return "pgx", nil
	case migrations.DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", dialect)
	}
}

// sqliteParams are appended to SQLite DSNs that do not set them already.
// WAL needs a file, so in-memory databases skip it.
var sqliteParams = []struct {
	key, param string
	fileOnly   bool
}{
	{"busy_timeout", "_pragma=busy_timeout(5000)", false},
	{"foreign_keys", "_pragma=foreign_keys(1)", false},
	{"journal_mode", "_pragma=journal_mode(WAL)", true},
	{"_txlock", "_txlock=immediate", false},
}

// PrepareDSN adjusts dsn for dialect. PostgreSQL DSNs are returned as is.
func PrepareDSN(dialect, dsn string) string {
	if dialect != migrations.DialectSQLite {
		return dsn
	}

	memory := filex.SQLitePath(dsn) == ""
	for _, p := range sqliteParams {
		if strings.Contains(dsn, p.key) || (p.fileOnly && memory) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.param
	}
	return dsn
}
