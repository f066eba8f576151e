package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

type Config struct {
	Driver          string // "sqlite" | "pgx"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Open connects to the journal database and returns a *sql.DB for it. For pgx the
// pool is returned as well so it can be closed after the *sql.DB.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to journal database", "driver", cfg.Driver)

	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		db, err := sql.Open(DriverSQLite, cfg.DSN)
		if err != nil {
			logger.Error("failed to open journal database", "error", err)
			return nil, nil, err
		}
		// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY between loops
		db.SetMaxOpenConns(1)
		return db, nil, nil

	case DriverPgx:
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse journal dsn", "error", err)
			return nil, nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			pc.MinConns = cfg.MinConns
		}
		if cfg.MaxConnLifetime > 0 {
			pc.MaxConnLifetime = cfg.MaxConnLifetime
		}
		if cfg.MaxConnIdleTime > 0 {
			pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "docrenamer"

		dialTimeout := cfg.DialTimeout
		if dialTimeout <= 0 {
			dialTimeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			logger.Error("failed to connect to journal database", "error", err)
			return nil, nil, err
		}
		return stdlib.OpenDBFromPool(pool), pool, nil

	default:
		return nil, nil, fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
}

// Close closes the database connections gracefully
func Close(db *sql.DB, pool *pgxpool.Pool, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing journal database")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close journal database", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("journal database ping failed", "error", err)
		return err
	}
	logger.Debug("journal database ping successful")
	return nil
}
