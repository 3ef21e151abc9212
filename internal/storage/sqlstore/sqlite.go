package sqlstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gogermany/gobot/core/logger"
)

const sqliteDriver = "sqlite"

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

func init() {
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
}

// OpenSQLite opens (creating if needed) the database file at path, applies
// the embedded schema and returns a Store over it.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: storage path is required")
	}
	dsn := sqliteDSN(path)

	start := time.Now()
	if err := migrateSQLite(dsn); err != nil {
		logger.Error(ctx, component, "migrate.failed",
			slog.String("driver", sqliteDriver),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One writer at a time; readers share the WAL.
	db.SetMaxOpenConns(1)

	logger.Info(ctx, component, "db.connected",
		slog.String("driver", sqliteDriver),
		slog.String("path", path),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return New(db), nil
}

func sqliteDSN(path string) string {
	return "file:" + filepath.ToSlash(filepath.Clean(path)) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

// migrateSQLite runs on its own connection; closing the migrator closes it.
func migrateSQLite(dsn string) error {
	conn, err := sqlx.Open(sqliteDriver, dsn)
	if err != nil {
		return fmt.Errorf("sqlite: open for migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(conn.DB, &migratesqlite.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("sqlite: migration driver: %w", err)
	}
	src, err := iofs.New(sqliteMigrations, "migrations")
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("sqlite: migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, sqliteDriver, driver)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("sqlite: init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: apply migrations: %w", err)
	}
	return nil
}
