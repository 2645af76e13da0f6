package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/prices/internal/schema"
)

// Price is one observation of a product's price at a store.
type Price struct {
	Base
	PriceWithTax float64   `json:"price"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    *float64  `json:"unit_price,omitempty"`
	TaxRate      float64   `json:"tax_rate"`
	ProductID    int64     `json:"product_id"`
	StoreID      int64     `json:"store_id"`
	Confirmed    time.Time `json:"confirmed"`
}

var priceTable = schema.NewTable("prices", "id",
	baseColumns(func(p *Price) *Base { return &p.Base },
		schema.Col("PriceWithTax", "price", func(p *Price) any { return &p.PriceWithTax }),
		schema.Col("Quantity", "quantity", func(p *Price) any { return &p.Quantity }),
		schema.Col("UnitPrice", "unit_price", func(p *Price) any { return &p.UnitPrice }, schema.Virtual),
		schema.Col("TaxRate", "tax_rate", func(p *Price) any { return &p.TaxRate }, schema.Required),
		schema.Col("ProductID", "product_id", func(p *Price) any { return &p.ProductID }, schema.Required),
		schema.Col("StoreID", "store_id", func(p *Price) any { return &p.StoreID }, schema.Required),
		schema.Col("Confirmed", "confirmed", func(p *Price) any { return &p.Confirmed }, schema.Required),
	)...,
)

func (*Price) Table() *schema.Table[Price] { return priceTable }
func (*Price) Kind() string                { return KindPrice }

// UniqueKey is empty: prices have no natural key.
func (*Price) UniqueKey() string { return "" }

// PriceWithoutTax returns the price before tax.
func (p *Price) PriceWithoutTax() float64 {
	return p.PriceWithTax / (1 + p.TaxRate)
}

func (p *Price) SearchTargets() []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		tag("p", p.ProductID),
		tag("s", p.StoreID),
		strconv.FormatFloat(p.PriceWithTax, 'f', -1, 64),
		deref(p.Remarks),
	}
}

func (p *Price) Clone() *Price {
	return p.CopyTo(&Price{})
}

func (p *Price) CopyTo(dst *Price) *Price {
	p.Base.copyTo(&dst.Base)
	dst.PriceWithTax = p.PriceWithTax
	dst.Quantity = p.Quantity
	dst.UnitPrice = clonePtr(p.UnitPrice)
	dst.TaxRate = p.TaxRate
	dst.ProductID = p.ProductID
	dst.StoreID = p.StoreID
	dst.Confirmed = p.Confirmed
	return dst
}

func (p *Price) Equal(o *Price) bool {
	return o != nil &&
		p.Base.equal(&o.Base) &&
		p.PriceWithTax == o.PriceWithTax &&
		p.Quantity == o.Quantity &&
		equalPtr(p.UnitPrice, o.UnitPrice) &&
		p.TaxRate == o.TaxRate &&
		p.ProductID == o.ProductID &&
		p.StoreID == o.StoreID &&
		p.Confirmed.Equal(o.Confirmed)
}

func (p *Price) String() string {
	return fmt.Sprintf("price %d: %.2f x %g [product %d, store %d]", p.ID, p.PriceWithTax, p.Quantity, p.ProductID, p.StoreID)
}
