// Package bootstrap brings up shared infrastructure before the bot starts.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	coredatabase "github.com/EgoisTa-Git/fish-shop/core/database"
	"github.com/EgoisTa-Git/fish-shop/core/logger"
)

const defaultWaitTimeout = 30 * time.Second

// Options control the bootstrap pipeline. Nil hooks select the defaults.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error
	// WaitTimeout bounds waiting for Postgres to accept connections.
	WaitTimeout time.Duration
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil when the order journal is disabled.
	DB *sqlx.DB
}

// Close releases the resources held by r.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, when a database is configured, connects
// to it and applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	dbCfg := opts.Config.Database
	if !dbCfg.Enabled() {
		logger.Info(ctx, "db", "db.disabled")
		return &Result{}, nil
	}

	connect := opts.Connect
	if connect == nil {
		wait := opts.WaitTimeout
		if wait <= 0 {
			wait = defaultWaitTimeout
		}
		connect = func(ctx context.Context, cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			if err := coredatabase.WaitForPostgres(ctx, coredatabase.DSN(cfg), wait); err != nil {
				return nil, err
			}
			return coredatabase.Connect(ctx, cfg)
		}
	}
	db, err := connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}
