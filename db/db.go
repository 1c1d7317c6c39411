// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	moderncsqlite "modernc.org/sqlite"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)

	// SQLite's built-in lower() only folds ASCII. Replacing it on every
	// connection makes search case-insensitive for all of Unicode, as
	// lower() is on Postgres.
	moderncsqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

func unicodeLower(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Open connects to the database and verifies the connection.
// For sqlite, dsn is a file path; parent directories are created.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		path := strings.TrimPrefix(dsn, "file:")
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = sqliteDSN(path)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database type %q", driver)
	}

	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Connected to database", zap.String("driver", driver))
	return conn, nil
}

// sqliteDSN enables WAL, foreign keys, and a busy timeout on every
// connection, and makes transactions take the write lock up front.
func sqliteDSN(path string) string {
	return "file:" + path +
		"?_pragma=busy_timeout(10000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_txlock=immediate"
}

// Migrate applies all pending up migrations for the connection's dialect.
// Safe to call on every start.
func Migrate(conn *sqlx.DB, logger *zap.Logger) error {
	var (
		driver database.Driver
		err    error
	)
	dialect := conn.DriverName()
	switch dialect {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to get migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Database migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
