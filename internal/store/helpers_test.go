package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// sqliteDrivers are exercised by every database-backed test.
var sqliteDrivers = []string{"sqlite3", "sqlite"}

// openTestStore opens a fresh temp-dir database through driver.
func openTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.db")
	s, err := Open(driver, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func forEachDriver(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()
	for _, driver := range sqliteDrivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver))
		})
	}
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
