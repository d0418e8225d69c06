package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/logger"
)

// Options control the start-up pipeline. Database is nil when no component
// needs Postgres.
type Options struct {
	Config   *coreconfig.Config
	Database *coredatabase.Config
	// ConnectWait bounds how long to wait for Postgres to accept connections.
	ConnectWait time.Duration

	LoggerInit func(*coreconfig.Config) error
	Connect    func(ctx context.Context, cfg coredatabase.Config, wait time.Duration) (*sqlx.DB, error)
	Migrate    func(ctx context.Context, db *sqlx.DB, dir string) error
}

// Result holds the infrastructure Run opened.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initialises the logger and, when a database is configured, connects
// and applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database == nil {
		return &Result{}, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	wait := opts.ConnectWait
	if wait <= 0 {
		wait = 30 * time.Second
	}
	db, err := connect(ctx, *opts.Database, wait)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.Migrate
	}
	if err := migrate(ctx, db, opts.Database.MigrationsDir); err != nil {
		return nil, errors.Join(fmt.Errorf("bootstrap: migrations failed: %w", err), db.Close())
	}
	return &Result{DB: db}, nil
}
