package entity

import (
	"fmt"
	"strconv"

	"github.com/roach88/prices/internal/schema"
)

// Consumption tax rates.
const (
	TaxRateFood    = 0.08
	TaxRateNonFood = 0.10
)

// Category groups products and fixes their tax rate.
type Category struct {
	Base
	Name     string  `json:"name"`
	IsFood   bool    `json:"is_food"`
	TaxRate  float64 `json:"tax_rate"`
	Priority *int32  `json:"priority,omitempty"`
}

// NewCategory returns a category with the tax rate matching isFood.
func NewCategory(name string, isFood bool) *Category {
	c := &Category{Name: name, IsFood: isFood, TaxRate: TaxRateNonFood}
	if isFood {
		c.TaxRate = TaxRateFood
	}
	return c
}

var categoryTable = schema.NewTable("categories", "priority DESC NULLS LAST, name",
	baseColumns(func(c *Category) *Base { return &c.Base },
		schema.Col("Name", "name", func(c *Category) any { return &c.Name }, schema.Required, schema.MaxLength(255)),
		schema.Col("IsFood", "is_food", func(c *Category) any { return &c.IsFood }, schema.Required),
		schema.Col("TaxRate", "tax_rate", func(c *Category) any { return &c.TaxRate }, schema.Required),
		schema.Col("Priority", "priority", func(c *Category) any { return &c.Priority }),
	)...,
)

func (*Category) Table() *schema.Table[Category] { return categoryTable }
func (*Category) Kind() string                   { return KindCategory }
func (c *Category) UniqueKey() string            { return c.Name }

// TaxPercentage returns the tax rate as a whole percentage.
func (c *Category) TaxPercentage() int {
	return int(c.TaxRate*100 + 0.5)
}

// SetTaxPercentage sets the tax rate from a whole percentage.
func (c *Category) SetTaxPercentage(p int) {
	c.TaxRate = float64(p) / 100
}

func (c *Category) SearchTargets() []string {
	food := "not_food"
	if c.IsFood {
		food = "is_food"
	}
	priority := ""
	if c.Priority != nil {
		priority = strconv.Itoa(int(*c.Priority))
	}
	return []string{tag("y", priority), tag("c", c.ID), c.Name, food, deref(c.Remarks)}
}

func (c *Category) Clone() *Category {
	return c.CopyTo(&Category{})
}

func (c *Category) CopyTo(dst *Category) *Category {
	c.Base.copyTo(&dst.Base)
	dst.Name = c.Name
	dst.IsFood = c.IsFood
	dst.TaxRate = c.TaxRate
	dst.Priority = clonePtr(c.Priority)
	return dst
}

func (c *Category) Equal(o *Category) bool {
	return o != nil &&
		c.Base.equal(&o.Base) &&
		c.Name == o.Name &&
		c.IsFood == o.IsFood &&
		c.TaxRate == o.TaxRate &&
		equalPtr(c.Priority, o.Priority)
}

func (c *Category) String() string {
	return fmt.Sprintf("category %d: %s (%d%%)", c.ID, c.Name, c.TaxPercentage())
}
