package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/store"
)

// SQLiteDrivers are the drivers database-backed tests run against.
var SQLiteDrivers = []string{"sqlite3", "sqlite"}

// OpenStore opens a fresh database file under t.TempDir() through driver.
// The store is closed when the test ends.
func OpenStore(t *testing.T, driver string, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(driver, filepath.Join(t.TempDir(), "prices.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// EachDriver runs fn as a subtest per SQLite driver.
func EachDriver(t *testing.T, fn func(t *testing.T, driver string)) {
	t.Helper()
	for _, driver := range SQLiteDrivers {
		t.Run(driver, func(t *testing.T) { fn(t, driver) })
	}
}
