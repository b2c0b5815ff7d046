package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/pressly/goose/v3"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending migration for dialect to db.
func Up(ctx context.Context, db *sql.DB, dialect string, logger logging.Logger) error {
	var (
		fsys         fs.FS
		gooseDialect string
	)

	switch dialect {
	case DialectPostgres:
		fsys, gooseDialect = Postgres, "pgx"
	case DialectSQLite:
		fsys, gooseDialect = SQLite, "sqlite3"
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(&gooseLogger{ctx: ctx, l: logger})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	if err := gooseUpContext(ctx, db, dialect); err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}

// gooseLogger routes goose progress lines into the structured logger.
type gooseLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.l.Info(g.ctx, fmt.Sprintf(format, v...), "component", "migrations")
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.l.Error(g.ctx, fmt.Sprintf(format, v...), "component", "migrations")
}
