// Package schema maps entity types onto storage tables.
//
// Each entity type declares a static Table: an ordered list of columns, each
// bound to a field accessor and flagged as key, virtual, or required. The
// table renders the SQL fragments used by the CRUD layer:
//
//   - ColumnsSQL and ValuesSQL list persisted, non-virtual columns for INSERT,
//     optionally with the key and optionally suffixing parameters with a batch
//     index for multi-row inserts.
//   - SettingSQL lists the same columns as "col = @col" pairs for UPDATE.
//   - SelectSQL reads every column, virtual ones included, plus the related
//     id list of a relational pair.
//
// Statements use @name parameters. Bind rewrites them into the positional
// placeholders of a Dialect so the same statement text serves SQLite and
// PostgreSQL.
//
// Virtual columns (generated columns, server timestamps, aggregated related
// ids) are populated by reads and never appear in write statements.
package schema
