package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/prices/internal/metrics"
)

// Store is a connection to the price database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	dbName  string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for transaction and maintenance events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records transaction outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Open connects to the database named by dsn through the given driver
// ("sqlite3", "sqlite", "pgx" or "postgres"), applies connection settings
// and brings the schema up to date.
//
// This function is idempotent - safe to call multiple times.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	name, err := d.DatabaseName(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := d.configure(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if err := d.migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, dialect: d, dbName: name, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("store opened", "driver", d.Driver(), "database", name)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer RunInTransaction.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the connection.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DatabaseName returns the database name extracted from the connection string.
func (s *Store) DatabaseName() string {
	return s.dbName
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Metrics returns the store's collectors, possibly nil.
func (s *Store) Metrics() *metrics.Metrics {
	return s.metrics
}
