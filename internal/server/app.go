// Package server assembles the application: configuration, logging, the
// database pool and migrations, services, the HTTP listener and the expired
// session sweeper, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/basicsite/internal/dbx"
	"github.com/dmitrijs2005/basicsite/internal/filex"
	"github.com/dmitrijs2005/basicsite/internal/logging"
	"github.com/dmitrijs2005/basicsite/internal/server/config"
	"github.com/dmitrijs2005/basicsite/internal/server/migrations"
	"github.com/dmitrijs2005/basicsite/internal/server/password"
	"github.com/dmitrijs2005/basicsite/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/basicsite/internal/server/services"
	"github.com/dmitrijs2005/basicsite/internal/server/web"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	http     *web.HTTPServer
}

// NewLogger builds the JSON logger at the configured level.
func NewLogger(c *config.Config) (logging.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return logging.NewJSONLogger(os.Stdout, level), nil
}

// OpenDatabase opens the configured database and applies pending migrations.
func OpenDatabase(ctx context.Context, c *config.Config, logger logging.Logger) (*sql.DB, repomanager.RepositoryManager, error) {
	rm, err := repomanager.New(c.DatabaseDriver, logger)
	if err != nil {
		return nil, nil, err
	}
	driver, err := repomanager.DriverName(c.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}
	pool := dbx.PoolOptions{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
	}
	if c.DatabaseDriver == migrations.DialectSQLite {
		if err := filex.EnsureSQLiteDir(c.DatabaseDSN); err != nil {
			return nil, nil, err
		}
		// An in-memory database lives as long as its last connection.
		if filex.SQLitePath(c.DatabaseDSN) == "" {
			pool = dbx.PoolOptions{MaxOpenConns: 1, MaxIdleConns: 1}
		}
	}

	db, err := dbx.Open(ctx, driver, repomanager.PrepareDSN(c.DatabaseDriver, c.DatabaseDSN), pool)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}
	return db, rm, nil
}

// NewHasher returns the password hasher for the configured argon2 costs.
func NewHasher(c *config.Config) *password.Hasher {
	return password.NewHasher(password.Params{
		Memory:      c.Argon2Memory,
		Iterations:  c.Argon2Iterations,
		Parallelism: c.Argon2Parallelism,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := NewLogger(c)
	if err != nil {
		return nil, err
	}

	db, rm, err := OpenDatabase(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	hasher := NewHasher(c)
	ss := services.NewSessionService(db, rm, hasher, logger)
	us := services.NewUserService(db, rm, hasher, ss, logger)
	auth := services.NewAuthenticator(db, rm, logger, time.Now)

	handlers := web.NewHandlers(auth, ss, us, logger, !c.InsecureCookies, time.Now)
	httpServer := web.NewHTTPServer(c.HTTPAddr, logger, handlers.Routes(), c.ShutdownTimeout)

	return &App{config: c, logger: logger, db: db, sessions: ss, http: httpServer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a shutdown signal arrives or the listener fails, then
// waits for the HTTP server and the sweeper and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sessions.RunSweeper(ctx, app.config.SweepInterval, time.Now)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
