package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/roach88/prices/internal/result"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Foreign-key lookup indexes on products and prices
const currentSchemaVersion = 1

// sqliteDialect serves both the cgo driver (mattn/go-sqlite3, "sqlite3")
// and the pure Go driver (modernc.org/sqlite, "sqlite").
type sqliteDialect struct {
	driver string
}

func (sqliteDialect) Name() string                 { return "sqlite" }
func (d sqliteDialect) Driver() string             { return d.driver }
func (sqliteDialect) Placeholder(int) string       { return "?" }
func (sqliteDialect) ListAgg(column string) string { return "group_concat(" + column + ")" }

// DatabaseName returns the file name without extension, or "main" for
// in-memory databases.
func (sqliteDialect) DatabaseName(dsn string) (string, error) {
	path := strings.TrimPrefix(dsn, "file:")
	query := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return "main", nil
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}

// configure applies the connection pragmas.
//
// The database is configured with:
//   - a single connection, so pragmas hold for every statement
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement, required for join-table cascades
func (sqliteDialect) configure(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// migrate creates tables if they don't exist and runs migrations.
func (sqliteDialect) migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(ctx, db); err != nil {
			return err
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 adds the lookup indexes behind ReferenceCount and FK checks.
func migrateToV1(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
		CREATE INDEX IF NOT EXISTS idx_prices_product ON prices(product_id);
		CREATE INDEX IF NOT EXISTS idx_prices_store ON prices(store_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// reclaim resets the AUTOINCREMENT counter when the table is empty.
// The emptiness check and the reset are one statement.
func (sqliteDialect) reclaim(ctx context.Context, db *sql.DB, table string) (bool, error) {
	res, err := db.ExecContext(ctx, fmt.Sprintf(
		"DELETE FROM sqlite_sequence WHERE name = ? AND NOT EXISTS (SELECT 1 FROM %s)", table), table)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (sqliteDialect) nextID(ctx context.Context, db *sql.DB, _, table string) (int64, error) {
	var next int64
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE((SELECT seq FROM sqlite_sequence WHERE name = ?), 0) + 1", table).Scan(&next)
	return next, err
}

// Classify maps SQLite result codes from either driver.
func (sqliteDialect) Classify(err error) (result.Status, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return classifyMattn(se)
	}
	var me *msqlite.Error
	if errors.As(err, &me) {
		return classifyModernc(me.Code())
	}
	return result.Unknown, false
}

func classifyMattn(e sqlite3.Error) (result.Status, bool) {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return result.DuplicateEntry, true
	case sqlite3.ErrConstraintForeignKey:
		return result.ForeignKeyConstraintFails, true
	case sqlite3.ErrConstraintCheck:
		return result.DataTooLong, true
	}
	switch e.Code {
	case sqlite3.ErrTooBig:
		return result.DataTooLong, true
	case sqlite3.ErrBusy:
		return result.CommandTimeout, true
	case sqlite3.ErrLocked:
		return result.DeadlockFound, true
	}
	return result.Unknown, false
}

func classifyModernc(code int) (result.Status, bool) {
	switch code {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return result.DuplicateEntry, true
	case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return result.ForeignKeyConstraintFails, true
	case sqlitelib.SQLITE_CONSTRAINT_CHECK:
		return result.DataTooLong, true
	}
	switch code & 0xff {
	case sqlitelib.SQLITE_TOOBIG:
		return result.DataTooLong, true
	case sqlitelib.SQLITE_BUSY:
		return result.CommandTimeout, true
	case sqlitelib.SQLITE_LOCKED:
		return result.DeadlockFound, true
	}
	return result.Unknown, false
}
