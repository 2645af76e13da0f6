package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/omeid/pgerror"

	"github.com/roach88/prices/internal/result"
)

//go:embed schema_postgres.sql
var postgresSchema string

// SQLSTATE codes the engine recognizes.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
	sqlstateCheckViolation      = "23514"
	sqlstateStringTruncation    = "22001"
	sqlstateDeadlockDetected    = "40P01"
	sqlstateSerialization       = "40001"
	sqlstateQueryCanceled       = "57014"
	sqlstateLockNotAvailable    = "55P03"
)

// postgresDialect serves pgx ("pgx") and lib/pq ("postgres").
type postgresDialect struct {
	driver string
}

func (postgresDialect) Name() string             { return "postgres" }
func (d postgresDialect) Driver() string         { return d.driver }
func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) ListAgg(column string) string {
	return fmt.Sprintf("string_agg(%s::text, ',' ORDER BY %s)", column, column)
}

// DatabaseName accepts URL, keyword/value and semicolon-separated
// connection strings.
func (postgresDialect) DatabaseName(dsn string) (string, error) {
	if name, ok := keyValueDatabase(dsn); ok {
		return name, nil
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "", err
	}
	if cfg.Database == "" {
		return "", errors.New("connection string names no database")
	}
	return cfg.Database, nil
}

func (postgresDialect) configure(_ context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	return nil
}

func (postgresDialect) migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(postgresSchema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// reclaim restarts the table's identity sequence at 1 when the table is empty.
func (postgresDialect) reclaim(ctx context.Context, db *sql.DB, table string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence($1, 'id'), 1, false) WHERE NOT EXISTS (SELECT 1 FROM %s)", table), table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	reset := rows.Next()
	return reset, rows.Err()
}

// nextID reads the identity sequence through the information catalog of dbName.
func (postgresDialect) nextID(ctx context.Context, db *sql.DB, dbName, table string) (int64, error) {
	var next int64
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(s.last_value + 1, s.start_value)
		FROM information_schema.columns c
		JOIN pg_sequences s
		  ON s.schemaname = c.table_schema
		 AND c.column_default = 'nextval(''' || s.sequencename || '''::regclass)'
		WHERE c.table_catalog = $1 AND c.table_name = $2 AND c.column_name = 'id'`,
		dbName, table).Scan(&next)
	return next, err
}

// Classify maps SQLSTATE codes from pgx and lib/pq errors.
func (postgresDialect) Classify(err error) (result.Status, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPQ(pqErr)
	}
	if pgconn.Timeout(err) {
		return result.CommandTimeout, true
	}
	return result.Unknown, false
}

func classifySQLState(code string) (result.Status, bool) {
	switch code {
	case sqlstateUniqueViolation:
		return result.DuplicateEntry, true
	case sqlstateForeignKeyViolation:
		return result.ForeignKeyConstraintFails, true
	case sqlstateStringTruncation, sqlstateCheckViolation:
		return result.DataTooLong, true
	case sqlstateDeadlockDetected, sqlstateSerialization:
		return result.DeadlockFound, true
	case sqlstateQueryCanceled, sqlstateLockNotAvailable:
		return result.CommandTimeout, true
	}
	return result.Unknown, false
}

func classifyPQ(err *pq.Error) (result.Status, bool) {
	switch {
	case pgerror.UniqueViolation(err) != nil:
		return result.DuplicateEntry, true
	case pgerror.ForeignKeyViolation(err) != nil:
		return result.ForeignKeyConstraintFails, true
	}
	return classifySQLState(string(err.Code))
}

// splitStatements splits a script on top-level semicolons, keeping
// dollar-quoted function bodies intact.
func splitStatements(script string) []string {
	var (
		stmts  []string
		b      strings.Builder
		inBody bool
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inBody && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		if strings.Count(line, "$$")%2 == 1 {
			inBody = !inBody
		}
		if !inBody && strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if rest := strings.TrimSpace(b.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
