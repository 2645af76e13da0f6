// Package entity defines the persisted records of the price tracker.
//
// Every record embeds Base (identity, version, audit timestamps, remarks) and
// declares a static schema.Table describing its columns. Authors and books
// form a relational pair: each side carries the ids of the other side as
// RelatedIDs, materialized from the author_books join table.
package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/prices/internal/schema"
)

// Base holds the columns shared by every entity.
type Base struct {
	ID       int64     `json:"id"`
	Version  int32     `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Remarks  *string   `json:"remarks,omitempty"`
}

// Header returns the shared columns.
func (b *Base) Header() *Base { return b }

func (b *Base) copyTo(dst *Base) {
	dst.ID = b.ID
	dst.Version = b.Version
	dst.Created = b.Created
	dst.Modified = b.Modified
	dst.Remarks = cloneString(b.Remarks)
}

func (b *Base) equal(o *Base) bool {
	return b.ID == o.ID &&
		b.Version == o.Version &&
		b.Created.Equal(o.Created) &&
		b.Modified.Equal(o.Modified) &&
		equalPtr(b.Remarks, o.Remarks)
}

// Record is implemented by every entity.
type Record interface {
	Header() *Base
	Kind() string
	UniqueKey() string
	SearchTargets() []string
}

// Model constrains generic code to pointers of entity types.
type Model[T any] interface {
	*T
	Record
	Table() *schema.Table[T]
	Clone() *T
	CopyTo(dst *T) *T
	Equal(other *T) bool
}

// Related is implemented by both sides of a relational pair.
type Related interface {
	RelatedIDs() []int64
	SetRelatedIDs(ids []int64)
}

// Kinds lists the entity kinds in load order.
var Kinds = []string{KindCategory, KindProduct, KindStore, KindPrice, KindAuthor, KindBook}

const (
	KindCategory = "category"
	KindProduct  = "product"
	KindStore    = "store"
	KindPrice    = "price"
	KindAuthor   = "author"
	KindBook     = "book"
)

// baseColumns declares the shared columns in front of the entity's own columns.
func baseColumns[T any](hdr func(*T) *Base, cols ...schema.Column[T]) []schema.Column[T] {
	out := []schema.Column[T]{
		schema.Col("ID", "id", func(r *T) any { return &hdr(r).ID }, schema.Key, schema.Required),
		schema.Col("Version", "version", func(r *T) any { return &hdr(r).Version }, schema.Required),
		schema.Col("Created", "created", func(r *T) any { return &hdr(r).Created }, schema.Virtual),
		schema.Col("Modified", "modified", func(r *T) any { return &hdr(r).Modified }, schema.Virtual),
	}
	out = append(out, cols...)
	return append(out, schema.Col("Remarks", "remarks", func(r *T) any { return &hdr(r).Remarks }))
}

// relatedIDs is the RelatedIDs storage shared by authors and books.
type relatedIDs struct {
	ids []int64
}

// RelatedIDs returns a copy of the related ids.
func (r *relatedIDs) RelatedIDs() []int64 { return slices.Clone(r.ids) }

// SetRelatedIDs replaces the related ids, dropping duplicates and non-positive ids.
func (r *relatedIDs) SetRelatedIDs(ids []int64) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	r.ids = out
}

func (r *relatedIDs) clone() relatedIDs { return relatedIDs{ids: slices.Clone(r.ids)} }

// sameIDs compares related id lists as sets.
func (r *relatedIDs) sameIDs(o *relatedIDs) bool {
	if len(r.ids) != len(o.ids) {
		return false
	}
	for _, id := range r.ids {
		if !slices.Contains(o.ids, id) {
			return false
		}
	}
	return true
}

func (r *relatedIDs) ref() *[]int64 { return &r.ids }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[V comparable](a, b *V) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func deref[V any](p *V) V {
	var zero V
	if p == nil {
		return zero
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[V any](v V) *V { return &v }

func tag(prefix string, v any) string { return fmt.Sprintf("%s%v.", prefix, v) }
