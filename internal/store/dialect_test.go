package store

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/result"
)

func TestSQLiteDatabaseName(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"prices.db", "prices"},
		{"/var/lib/prices/household.sqlite", "household"},
		{"file:books.db?_busy_timeout=5000", "books"},
		{":memory:", "main"},
		{"file::memory:?cache=shared", "main"},
		{"file:scratch?mode=memory", "main"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := sqliteDialect{}.DatabaseName(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresDatabaseName(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"url", "postgres://app:secret@db:5432/prices?sslmode=disable", "prices"},
		{"keyword", "host=db user=app dbname=household sslmode=disable", "household"},
		{"semicolon", "Host=db;Port=5432;Database=prices;Username=app;Password=x", "prices"},
		{"initial catalog", "Server=db;Initial Catalog=books;User Id=app", "books"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := postgresDialect{}.DatabaseName(tt.dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDialectFor(t *testing.T) {
	for _, driver := range Drivers {
		d, err := dialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, driver, d.Driver())
	}

	d, _ := dialectFor("pgx")
	assert.Equal(t, "$3", d.Placeholder(3))
	assert.Contains(t, d.ListAgg("book_id"), "string_agg(book_id::text")

	d, _ = dialectFor("sqlite")
	assert.Equal(t, "?", d.Placeholder(3))
	assert.Equal(t, "group_concat(book_id)", d.ListAgg("book_id"))
}

func TestCheckIdent(t *testing.T) {
	assert.NoError(t, checkIdent("author_books"))
	assert.Error(t, checkIdent("books; DROP TABLE books"))
	assert.Error(t, checkIdent("Books"))
	assert.Error(t, checkIdent(""))
}

func TestSplitStatements_KeepsFunctionBodies(t *testing.T) {
	stmts := splitStatements(postgresSchema)
	require.NotEmpty(t, stmts)

	var fn string
	for _, stmt := range stmts {
		assert.NotContains(t, stmt, "\n--", "comments should be dropped")
		if strings.HasPrefix(stmt, "CREATE OR REPLACE FUNCTION touch_modified") {
			fn = stmt
		}
	}
	require.NotEmpty(t, fn, "touch_modified function not found")
	assert.Equal(t, 2, strings.Count(fn, "$$"))
	assert.True(t, strings.HasSuffix(fn, ";"))
}

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE a (id INT);

CREATE FUNCTION f() RETURNS trigger AS $$
BEGIN
    NEW.x := 1;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;
SELECT 1`
	stmts := splitStatements(script)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (id INT);", stmts[0])
	assert.Contains(t, stmts[1], "RETURN NEW;")
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestPostgresClassify(t *testing.T) {
	d := postgresDialect{}
	tests := []struct {
		name string
		err  error
		want result.Status
	}{
		{"pgx unique", &pgconn.PgError{Code: "23505"}, result.DuplicateEntry},
		{"pgx foreign key", &pgconn.PgError{Code: "23503"}, result.ForeignKeyConstraintFails},
		{"pgx truncation", &pgconn.PgError{Code: "22001"}, result.DataTooLong},
		{"pgx check", &pgconn.PgError{Code: "23514"}, result.DataTooLong},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, result.DeadlockFound},
		{"pgx serialization", &pgconn.PgError{Code: "40001"}, result.DeadlockFound},
		{"pgx canceled", &pgconn.PgError{Code: "57014"}, result.CommandTimeout},
		{"pq unique", &pq.Error{Code: "23505"}, result.DuplicateEntry},
		{"pq foreign key", &pq.Error{Code: "23503"}, result.ForeignKeyConstraintFails},
		{"pq check", &pq.Error{Code: "23514"}, result.DataTooLong},
		{"pq truncation", &pq.Error{Code: "22001"}, result.DataTooLong},
		{"pq deadlock", &pq.Error{Code: "40P01"}, result.DeadlockFound},
		{"pq lock", &pq.Error{Code: "55P03"}, result.CommandTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Classify(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := d.Classify(&pgconn.PgError{Code: "42601"})
	assert.False(t, ok, "syntax errors are not classified")
}
