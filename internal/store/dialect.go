package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/schema"
)

// Dialect adapts statements and driver errors to one database engine.
type Dialect interface {
	schema.Dialect

	// Name is the engine family: "sqlite" or "postgres".
	Name() string
	// Driver is the database/sql driver name.
	Driver() string
	// DatabaseName extracts the target database name from a connection string.
	DatabaseName(dsn string) (string, error)
	// Classify maps a driver error onto the status taxonomy.
	// ok is false when the error is not one the dialect recognizes.
	Classify(err error) (status result.Status, ok bool)

	configure(ctx context.Context, db *sql.DB) error
	migrate(ctx context.Context, db *sql.DB) error
	reclaim(ctx context.Context, db *sql.DB, table string) (bool, error)
	nextID(ctx context.Context, db *sql.DB, dbName, table string) (int64, error)
}

// Drivers lists the supported database/sql driver names.
var Drivers = []string{"sqlite3", "sqlite", "pgx", "postgres"}

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return sqliteDialect{driver: driver}, nil
	case "pgx", "postgres":
		return postgresDialect{driver: driver}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (want one of %s)", driver, strings.Join(Drivers, ", "))
	}
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// checkIdent guards table names interpolated into maintenance statements.
func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
