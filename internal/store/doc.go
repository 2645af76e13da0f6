// Package store connects the engine to its database and runs units of work.
//
// Two engine families are supported, each through two database/sql drivers:
//   - SQLite: "sqlite3" (mattn/go-sqlite3, cgo) and "sqlite" (modernc.org/sqlite)
//   - PostgreSQL: "pgx" (jackc/pgx) and "postgres" (lib/pq)
//
// Open applies connection settings and the embedded schema. SQLite databases
// are configured with:
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Transactions
//
// RunInTransaction is the only write path. Statements inside a unit of work
// use @name parameters, rewritten to the driver's placeholders by
// schema.Bind. Driver errors are classified by typed codes into the
// result.Status taxonomy; timeouts and deadlocks escape as *Error, other
// known failures become the Result status after rollback.
//
// # Identity counters
//
// Reclaim restarts a table's identity at 1 once the table is empty. NextID
// reports the next identity; on PostgreSQL it reads the information catalog
// of the database named in the connection string.
package store
