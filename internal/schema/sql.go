package schema

import (
	"fmt"
	"strings"
)

// ColumnsSQL lists the writable column names.
func (t *Table[T]) ColumnsSQL(withKey bool) string {
	return strings.Join(names(t.Writable(withKey)), ", ")
}

// ValuesSQL lists the parameters matching ColumnsSQL, suffixed with index
// unless it is NoIndex.
func (t *Table[T]) ValuesSQL(withKey bool, index int) string {
	cols := t.Writable(withKey)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = "@" + paramName(c.Name, index)
	}
	return strings.Join(out, ", ")
}

// SettingSQL lists "col = @col" assignments for every writable non-key column.
func (t *Table[T]) SettingSQL() string {
	cols := t.Writable(false)
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name + " = @" + c.Name
	}
	return strings.Join(out, ", ")
}

// InsertSQL inserts one row without its key and returns the server-assigned columns.
func (t *Table[T]) InsertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.Name, t.ColumnsSQL(false), t.ValuesSQL(false, NoIndex), t.returning())
}

// InsertRowsSQL inserts n rows in one statement using indexed parameters.
func (t *Table[T]) InsertRowsSQL(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = "(" + t.ValuesSQL(false, i) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		t.Name, t.ColumnsSQL(false), strings.Join(rows, ", "))
}

// UpdateSQL writes every writable column of the row with the given key.
func (t *Table[T]) UpdateSQL() string {
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = @%s",
		t.Name, t.SettingSQL(), KeyColumn, KeyColumn)
}

// DeleteSQL deletes the row with the given key.
func (t *Table[T]) DeleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = @%s", t.Name, KeyColumn, KeyColumn)
}

// DeleteInSQL deletes the rows whose keys are listed by in.
func (t *Table[T]) DeleteInSQL(in string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", t.Name, KeyColumn, in)
}

// VersionSQL reads the stored version of one row.
func (t *Table[T]) VersionSQL() string {
	return fmt.Sprintf("SELECT version FROM %s WHERE %s = @%s", t.Name, KeyColumn, KeyColumn)
}

// VersionsSQL reads (id, version) pairs for the ids listed by in.
func (t *Table[T]) VersionsSQL(in string) string {
	return fmt.Sprintf("SELECT %s, version FROM %s WHERE %s IN (%s)", KeyColumn, t.Name, KeyColumn, in)
}

// StampSQL reads the server-maintained columns of one row.
func (t *Table[T]) StampSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = @%s", t.returning(), t.Name, KeyColumn, KeyColumn)
}

// SelectSQL reads every column of every row, plus the related id list of a
// relational pair, in the table's order.
func (t *Table[T]) SelectSQL(d Dialect) string {
	cols := names(t.Columns)
	if r := t.Relation; r != nil {
		cols = append(cols, fmt.Sprintf("(SELECT %s FROM %s WHERE %s = %s.%s) AS related_ids",
			d.ListAgg(r.OtherColumn), r.JoinTable, r.OwnColumn, t.Name, KeyColumn))
	}
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), t.Name)
	if t.OrderBy != "" {
		q += " ORDER BY " + t.OrderBy
	}
	return q
}

// returning lists the key and the virtual columns the server fills on write.
func (t *Table[T]) returning() string {
	cols := []string{KeyColumn}
	for _, c := range t.Columns {
		if c.Virtual {
			cols = append(cols, c.Name)
		}
	}
	return strings.Join(cols, ", ")
}

// ReturningDest returns scan destinations matching the RETURNING list of InsertSQL.
func (t *Table[T]) ReturningDest(rec *T) []any {
	var key any
	dest := []any{nil}
	for _, c := range t.Columns {
		switch {
		case c.Key:
			key = scanTarget(c.ref(rec))
		case c.Virtual:
			dest = append(dest, scanTarget(c.ref(rec)))
		}
	}
	dest[0] = key
	return dest
}

// DeleteLinksSQL removes every join row owned by the given key.
func (r Relation) DeleteLinksSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = @%s", r.JoinTable, r.OwnColumn, KeyColumn)
}
