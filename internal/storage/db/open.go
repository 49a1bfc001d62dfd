// Package db contains the sqlite schema, query code generation and utilities
// used by the storage package.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite" // sqlite sql.DB driver initialization
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Open initializes a SQLite DB connection to the specified dbPath. If the
// database file does not exist, its parent directory is created. The schema is
// migrated to the latest version before the handle is returned.
func Open(ctx context.Context, logger *slog.Logger, dbPath string) (*sql.DB, error) {
	if dbPath != MemoryPath {
		if _, err := os.Stat(dbPath); err != nil {
			const userOnlyDirPerms = 0o700
			if err = os.MkdirAll(filepath.Dir(dbPath), userOnlyDirPerms); err != nil {
				return nil, fmt.Errorf("failed to create db parent directory: %w", err)
			}
		}
	}

	dsn := dbPath
	if strings.ContainsRune(dsn, '?') {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_time_format=sqlite"

	registerPragmas()

	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create DB handler: %w", err)
	} else if err = handle.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	// a single connection serializes writers and keeps :memory: databases alive
	handle.SetMaxOpenConns(1)

	logger = logger.With(slog.String("db", dbPath))
	goose.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	goose.SetBaseFS(migrations)

	if err = goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err = goose.UpContext(ctx, handle, "migrations"); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to migrate DB: %w", err), handle.Close())
	}
	return handle, nil
}

var registerPragmas = sync.OnceFunc(func() {
	sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, _ string) error {
		const initSQL = `
		pragma foreign_keys = on; -- sessions reference users
		pragma journal_mode = WAL; -- allow concurrent readers during writes
		pragma synchronous = normal; -- don't wait for fsync except on checkpointing
		pragma busy_timeout = 5000; -- wait on locks instead of failing fast
		`
		_, err := conn.ExecContext(context.Background(), initSQL, nil)
		return err
	})
})

// IsUniqueViolation reports whether err was caused by a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE")
}

// IsForeignKeyViolation reports whether err was caused by a FOREIGN KEY
// constraint.
func IsForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

// isConstraint matches the extended result code, falling back to the message
// when the driver only reports the primary SQLITE_CONSTRAINT code.
func isConstraint(err error, extended int, kind string) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case extended:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), kind+" constraint failed")
	default:
		return false
	}
}
