package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/migrations"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	logger logging.Logger
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Sessions returns a sessions.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db, migrations.DialectPostgres, m.logger)
}

func NewPostgresRepositoryManager(logger logging.Logger) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{logger: logger}
}
