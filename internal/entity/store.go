package entity

import (
	"fmt"

	"github.com/roach88/prices/internal/schema"
)

// Store is a shop where prices are observed.
type Store struct {
	Base
	Name string `json:"name"`
}

var storeTable = schema.NewTable("stores", "id",
	baseColumns(func(s *Store) *Base { return &s.Base },
		schema.Col("Name", "name", func(s *Store) any { return &s.Name }, schema.Required, schema.MaxLength(255)),
	)...,
)

func (*Store) Table() *schema.Table[Store] { return storeTable }
func (*Store) Kind() string                { return KindStore }
func (s *Store) UniqueKey() string         { return s.Name }

func (s *Store) SearchTargets() []string {
	return []string{tag("s", s.ID), s.Name, deref(s.Remarks)}
}

func (s *Store) Clone() *Store {
	return s.CopyTo(&Store{})
}

func (s *Store) CopyTo(dst *Store) *Store {
	s.Base.copyTo(&dst.Base)
	dst.Name = s.Name
	return dst
}

func (s *Store) Equal(o *Store) bool {
	return o != nil && s.Base.equal(&o.Base) && s.Name == o.Name
}

func (s *Store) String() string {
	return fmt.Sprintf("store %d: %s", s.ID, s.Name)
}
