package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/migrations"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/users"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager is the single-file deployment counterpart of
// PostgresRepositoryManager.
type SQLiteRepositoryManager struct {
	logger logging.Logger
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db, migrations.DialectSQLite, m.logger)
}

func NewSQLiteRepositoryManager(logger logging.Logger) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{logger: logger}
}
