// Package repotest provides a migrated in-memory SQLite database for tests
// of repositories and everything built on top of them.
package repotest

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// SQLiteDSN returns a DSN for a private shared-cache in-memory database with
// foreign keys enforced.
func SQLiteDSN(name string) string {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
}

// NewSQLite opens a fresh in-memory database, applies all migrations and
// closes it when the test ends. The pool is limited to one connection so
// shared-cache table locks cannot surface as test flakes.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", SQLiteDSN(t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, migrations.DialectSQLite, logging.Nop{}))
	return db
}
