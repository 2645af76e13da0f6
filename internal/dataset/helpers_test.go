package dataset_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/store"
	"github.com/roach88/prices/internal/testutil"
)

// newDataset opens a fresh database through driver and loads it.
func newDataset(t *testing.T, driver string, opts ...dataset.Option) *dataset.Dataset {
	t.Helper()
	s := testutil.OpenStore(t, driver)
	opts = append([]dataset.Option{dataset.WithSession(testutil.NewFixedSession(""))}, opts...)
	ds := dataset.New(s, opts...)
	require.NoError(t, ds.Initialize(context.Background()))
	return ds
}

func storedCount(t *testing.T, s *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// seedPrice adds a category, product, store and one price for that product.
func seedPrice(t *testing.T, ds *dataset.Dataset) (*entity.Category, *entity.Product, *entity.Store, *entity.Price) {
	t.Helper()
	ctx := context.Background()

	cat := entity.NewCategory("Dairy", true)
	mustAdd(t, ds, cat)
	prod := &entity.Product{Name: "Milk", CategoryID: cat.ID, Unit: entity.Ptr("l")}
	mustAdd(t, ds, prod)
	shop := &entity.Store{Name: "Corner"}
	mustAdd(t, ds, shop)
	price := &entity.Price{
		PriceWithTax: 300,
		Quantity:     2,
		TaxRate:      cat.TaxRate,
		ProductID:    prod.ID,
		StoreID:      shop.ID,
		Confirmed:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	res, err := dataset.Add(ctx, ds, price)
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), res.Status.String())
	return cat, prod, shop, price
}

func mustAdd[T any, P entity.Model[T]](t *testing.T, ds *dataset.Dataset, item *T) {
	t.Helper()
	res, err := dataset.Add[T, P](context.Background(), ds, item)
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), "add %s: %s", P(item).Kind(), res.Status)
}
