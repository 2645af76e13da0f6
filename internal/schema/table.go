package schema

import (
	"fmt"
	"strings"
)

// Dialect renders the dialect-specific pieces of a statement.
type Dialect interface {
	// Placeholder returns the positional placeholder for the n-th (1-based) argument.
	Placeholder(n int) string
	// ListAgg returns an aggregate expression joining column values with commas.
	ListAgg(column string) string
}

// NoIndex disables the batch suffix on parameter names.
const NoIndex = -1

// KeyColumn is the storage name of every table's identity column.
const KeyColumn = "id"

// Attrs are the shape flags of a column.
type Attrs struct {
	Key       bool
	Virtual   bool
	Required  bool
	MaxLength int
}

// Flag sets a column attribute.
type Flag func(*Attrs)

var (
	// Key marks the identity column.
	Key Flag = func(a *Attrs) { a.Key = true }
	// Virtual marks a column populated by reads only.
	Virtual Flag = func(a *Attrs) { a.Virtual = true }
	// Required marks a column that must hold a non-default value before a write.
	Required Flag = func(a *Attrs) { a.Required = true }
)

// MaxLength records the storage capacity of a string column.
func MaxLength(n int) Flag {
	return func(a *Attrs) { a.MaxLength = n }
}

// Column binds a storage column to a field of T.
type Column[T any] struct {
	Attrs
	Field string
	Name  string
	ref   func(*T) any
}

// Col declares a column. ref returns a pointer to the backing field.
func Col[T any](field, name string, ref func(*T) any, flags ...Flag) Column[T] {
	c := Column[T]{Field: field, Name: name, ref: ref}
	for _, f := range flags {
		f(&c.Attrs)
	}
	return c
}

// Value returns the column's value on rec, ready to bind.
func (c Column[T]) Value(rec *T) any {
	return valueOf(c.ref(rec))
}

// Empty reports whether the column holds a default value on rec.
func (c Column[T]) Empty(rec *T) bool {
	return isEmpty(c.ref(rec))
}

// Relation describes the join table of a relational pair from one side.
type Relation struct {
	JoinTable   string
	OwnColumn   string
	OtherColumn string
}

// Link is one join-table row.
type Link struct {
	Own   int64
	Other int64
}

// Links returns the join-table shape of the relation.
func (r Relation) Links() *Table[Link] {
	return NewTable(r.JoinTable, r.OwnColumn+", "+r.OtherColumn,
		Col("Own", r.OwnColumn, func(l *Link) any { return &l.Own }, Required),
		Col("Other", r.OtherColumn, func(l *Link) any { return &l.Other }, Required),
	)
}

// Table is the static shape of an entity type.
type Table[T any] struct {
	Name     string
	OrderBy  string
	Columns  []Column[T]
	Relation *Relation
	related  func(*T) *[]int64
}

// NewTable declares a table.
func NewTable[T any](name, orderBy string, cols ...Column[T]) *Table[T] {
	return &Table[T]{Name: name, OrderBy: orderBy, Columns: cols}
}

// WithRelation attaches a join table; ref returns the field holding the related ids.
func (t *Table[T]) WithRelation(r Relation, ref func(*T) *[]int64) *Table[T] {
	t.Relation = &r
	t.related = ref
	return t
}

// Column returns the column backing the named field.
func (t *Table[T]) Column(field string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column[T]{}, false
}

// SQLName returns the storage name of a field, or "" if it is not persisted.
func (t *Table[T]) SQLName(field string) string {
	c, ok := t.Column(field)
	if !ok {
		return ""
	}
	return c.Name
}

// Writable returns the persisted, non-virtual columns.
func (t *Table[T]) Writable(withKey bool) []Column[T] {
	out := make([]Column[T], 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Virtual || (c.Key && !withKey) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Missing returns the fields that are required but hold default values.
// The key is exempt: new entities carry id 0.
func (t *Table[T]) Missing(rec *T) []string {
	var missing []string
	for _, c := range t.Columns {
		if c.Required && !c.Key && !c.Virtual && c.Empty(rec) {
			missing = append(missing, c.Field)
		}
	}
	return missing
}

// Params returns the named values of the writable columns of rec,
// key included, suffixed with index unless it is NoIndex.
func (t *Table[T]) Params(rec *T, index int) map[string]any {
	params := make(map[string]any, len(t.Columns))
	for _, c := range t.Writable(true) {
		params[paramName(c.Name, index)] = c.Value(rec)
	}
	return params
}

// RowParams merges the indexed parameters of several records for a multi-row insert.
func (t *Table[T]) RowParams(recs []*T) map[string]any {
	params := make(map[string]any, len(recs)*len(t.Columns))
	for i, rec := range recs {
		for k, v := range t.Params(rec, i) {
			params[k] = v
		}
	}
	return params
}

// ScanDest returns the scan destinations of rec in SelectSQL column order.
func (t *Table[T]) ScanDest(rec *T) []any {
	dest := make([]any, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		dest = append(dest, scanTarget(c.ref(rec)))
	}
	if t.Relation != nil {
		dest = append(dest, &idListScanner{dst: t.related(rec)})
	}
	return dest
}

// Related returns the related ids field of rec, or nil for tables without a relation.
func (t *Table[T]) Related(rec *T) *[]int64 {
	if t.related == nil {
		return nil
	}
	return t.related(rec)
}

func paramName(name string, index int) string {
	if index == NoIndex {
		return name
	}
	return fmt.Sprintf("%s_%d", name, index)
}

func names[T any](cols []Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// ListParams names a list of ids for an IN clause: name_0, name_1, ...
func ListParams(name string, ids []int64) (string, map[string]any) {
	tokens := make([]string, len(ids))
	params := make(map[string]any, len(ids))
	for i, id := range ids {
		p := paramName(name, i)
		tokens[i] = "@" + p
		params[p] = id
	}
	return strings.Join(tokens, ", "), params
}
