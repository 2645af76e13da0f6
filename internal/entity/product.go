package entity

import (
	"fmt"

	"github.com/roach88/prices/internal/schema"
)

// Product is a purchasable item within a category.
type Product struct {
	Base
	Name       string  `json:"name"`
	CategoryID int64   `json:"category_id"`
	Unit       *string `json:"unit,omitempty"`
}

var productTable = schema.NewTable("products", "id",
	baseColumns(func(p *Product) *Base { return &p.Base },
		schema.Col("Name", "name", func(p *Product) any { return &p.Name }, schema.Required, schema.MaxLength(255)),
		schema.Col("CategoryID", "category_id", func(p *Product) any { return &p.CategoryID }, schema.Required),
		schema.Col("Unit", "unit", func(p *Product) any { return &p.Unit }, schema.MaxLength(50)),
	)...,
)

func (*Product) Table() *schema.Table[Product] { return productTable }
func (*Product) Kind() string                  { return KindProduct }
func (p *Product) UniqueKey() string           { return p.Name }

func (p *Product) SearchTargets() []string {
	return []string{tag("p", p.ID), p.Name, tag("c", p.CategoryID), deref(p.Unit), deref(p.Remarks)}
}

func (p *Product) Clone() *Product {
	return p.CopyTo(&Product{})
}

func (p *Product) CopyTo(dst *Product) *Product {
	p.Base.copyTo(&dst.Base)
	dst.Name = p.Name
	dst.CategoryID = p.CategoryID
	dst.Unit = cloneString(p.Unit)
	return dst
}

func (p *Product) Equal(o *Product) bool {
	return o != nil &&
		p.Base.equal(&o.Base) &&
		p.Name == o.Name &&
		p.CategoryID == o.CategoryID &&
		equalPtr(p.Unit, o.Unit)
}

func (p *Product) String() string {
	return fmt.Sprintf("product %d: %s [category %d]", p.ID, p.Name, p.CategoryID)
}
