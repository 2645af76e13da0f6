package dataset_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/dataset"
	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/testutil"
)

func TestDairyScenario(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)

		cat := &entity.Category{Name: "Dairy", TaxRate: 0.08}
		res, err := dataset.Add(ctx, ds, cat)
		require.NoError(t, err)
		assert.Equal(t, result.Success, res.Status)
		assert.Equal(t, int64(1), cat.ID)
		assert.Equal(t, int32(0), cat.Version)
		assert.False(t, cat.Created.IsZero(), "created stamp read back")

		stale := cat.Clone()

		cat.Name = "Dairy2"
		res, err = dataset.Update(ctx, ds, cat)
		require.NoError(t, err)
		assert.Equal(t, result.Success, res.Status)
		assert.Equal(t, int32(1), cat.Version)

		stale.Name = "Dairy3"
		res, err = dataset.Update(ctx, ds, stale)
		require.NoError(t, err)
		assert.Equal(t, result.VersionMismatch, res.Status)
		assert.Equal(t, int32(0), stale.Version, "a rejected update leaves the copy alone")

		var name string
		var version int32
		require.NoError(t, ds.Store().DB().QueryRow("SELECT name, version FROM categories WHERE id = 1").Scan(&name, &version))
		assert.Equal(t, "Dairy2", name)
		assert.Equal(t, int32(1), version)

		cached, ok := dataset.GetByID[entity.Category](ds, 1)
		require.True(t, ok)
		assert.Same(t, cat, cached)
		assert.Equal(t, "Dairy2", cached.Name)
	})
}

func TestAddThenRemove_CacheSizeUnchanged(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)
		mustAdd(t, ds, &entity.Store{Name: "Corner"})
		before := dataset.Count[entity.Store](ds)

		shop := &entity.Store{Name: "Market"}
		mustAdd(t, ds, shop)
		assert.Equal(t, before+1, dataset.Count[entity.Store](ds))

		res, err := dataset.Remove(ctx, ds, shop)
		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, before, dataset.Count[entity.Store](ds))
		assert.False(t, dataset.ExistsByID[entity.Store](ds, shop.ID))
	})
}

func TestUpdate_CopyUpdatesCachedEntry(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite3")
	shop := &entity.Store{Name: "Corner"}
	mustAdd(t, ds, shop)

	edit := shop.Clone()
	edit.Name = "Corner Shop"
	edit.Remarks = entity.Ptr("open late")
	res, err := dataset.Update(ctx, ds, edit)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	assert.Equal(t, "Corner Shop", shop.Name, "cached instance mutated in place")
	assert.Equal(t, int32(1), shop.Version)
	assert.True(t, shop.Equal(edit))
}

func TestUpdate_MissingRow(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite")

	res, err := dataset.Update(ctx, ds, &entity.Store{Base: entity.Base{ID: 42}, Name: "Ghost"})
	require.NoError(t, err)
	assert.Equal(t, result.MissingEntry, res.Status)
}

func TestRemove_MissingEntry(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)
		shop := &entity.Store{Name: "Corner"}
		mustAdd(t, ds, shop)

		_, err := ds.Store().DB().Exec("DELETE FROM stores WHERE id = ?", shop.ID)
		require.NoError(t, err)

		res, err := dataset.Remove(ctx, ds, shop)
		require.NoError(t, err)
		assert.Equal(t, result.MissingEntry, res.Status)
	})
}

func TestRemove_StaleVersion(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite3")
	shop := &entity.Store{Name: "Corner"}
	mustAdd(t, ds, shop)
	stale := shop.Clone()

	shop.Name = "Corner Shop"
	res, err := dataset.Update(ctx, ds, shop)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	res, err = dataset.Remove(ctx, ds, stale)
	require.NoError(t, err)
	assert.Equal(t, result.VersionMismatch, res.Status)
	assert.Equal(t, 1, storedCount(t, ds.Store(), "stores"))
	assert.True(t, dataset.ExistsByID[entity.Store](ds, shop.ID))
}

func TestRemoveAll_ReclaimsIdentity(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)

		var shops []*entity.Store
		for _, name := range []string{"A", "B", "C"} {
			shop := &entity.Store{Name: name}
			mustAdd(t, ds, shop)
			shops = append(shops, shop)
		}

		res, err := dataset.RemoveRange(ctx, ds, shops)
		require.NoError(t, err)
		assert.Equal(t, result.Success, res.Status)
		assert.Len(t, res.Value.Removed, 3)
		assert.Empty(t, res.Value.Remaining)

		next, err := ds.Store().NextID(ctx, "stores")
		require.NoError(t, err)
		assert.Equal(t, int64(1), next)

		shop := &entity.Store{Name: "D"}
		mustAdd(t, ds, shop)
		assert.Equal(t, int64(1), shop.ID)
	})
}

func TestAdd_CloneStartsAtVersionZero(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)
		shop := &entity.Store{Name: "Corner"}
		mustAdd(t, ds, shop)
		for _, name := range []string{"Corner 2", "Corner 3"} {
			shop.Name = name
			res, err := dataset.Update(ctx, ds, shop)
			require.NoError(t, err)
			require.True(t, res.IsSuccess())
		}
		require.Equal(t, int32(2), shop.Version)

		dup := shop.Clone()
		dup.Name = "Corner copy"
		mustAdd(t, ds, dup)
		assert.NotEqual(t, shop.ID, dup.ID)
		assert.Equal(t, int32(0), dup.Version)
		assert.False(t, dup.Created.IsZero(), "created stamp read back")

		var version int32
		require.NoError(t, ds.Store().DB().QueryRow("SELECT version FROM stores WHERE id = ?", dup.ID).Scan(&version))
		assert.Equal(t, int32(0), version)
		assert.Equal(t, int32(2), shop.Version, "the source keeps its version")
	})
}

func TestRemove_LastRowReclaimsIdentity(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite")
	first := &entity.Store{Name: "A"}
	mustAdd(t, ds, first)
	second := &entity.Store{Name: "B"}
	mustAdd(t, ds, second)

	for _, shop := range []*entity.Store{first, second} {
		res, err := dataset.Remove(ctx, ds, shop)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
	}

	again := &entity.Store{Name: "C"}
	mustAdd(t, ds, again)
	assert.Equal(t, int64(1), again.ID)
}

func TestRemoveRange_HalfStale(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)

		var authors []*entity.Author
		for _, name := range []string{"A", "B", "C", "D"} {
			a := &entity.Author{Name: name}
			mustAdd(t, ds, a)
			authors = append(authors, a)
		}

		// Another session edits B and D behind our backs.
		_, err := ds.Store().DB().Exec("UPDATE authors SET version = version + 1 WHERE name IN ('B', 'D')")
		require.NoError(t, err)

		res, err := dataset.RemoveRange(ctx, ds, authors)
		require.NoError(t, err)
		assert.Equal(t, result.VersionMismatch, res.Status)
		assert.ElementsMatch(t, []*entity.Author{authors[0], authors[2]}, res.Value.Removed)
		assert.ElementsMatch(t, []*entity.Author{authors[1], authors[3]}, res.Value.Remaining)

		assert.ElementsMatch(t, []*entity.Author{authors[1], authors[3]}, dataset.List[entity.Author](ds))
		assert.Equal(t, 2, storedCount(t, ds.Store(), "authors"))
	})
}

func TestRemoveRange_MissingEntry(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite3")

	a := &entity.Author{Name: "A"}
	b := &entity.Author{Name: "B"}
	mustAdd(t, ds, a)
	mustAdd(t, ds, b)

	_, err := ds.Store().DB().Exec("DELETE FROM authors WHERE id = ?", b.ID)
	require.NoError(t, err)

	res, err := dataset.RemoveRange(ctx, ds, []*entity.Author{a, b})
	require.NoError(t, err)
	assert.Equal(t, result.MissingEntry, res.Status)
	assert.Len(t, res.Value.Removed, 2)
	assert.Zero(t, dataset.Count[entity.Author](ds))
}

func TestRemoveRange_Empty(t *testing.T) {
	ds := newDataset(t, "sqlite3")
	res, err := dataset.RemoveRange[entity.Book](context.Background(), ds, nil)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())
}

func TestAuthorForeignKeyPruneAndRetry(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)

		// Books 1..10 exist; book 11 does not.
		for i := 1; i <= 10; i++ {
			mustAdd(t, ds, &entity.Book{Title: strings.Repeat("b", i)})
		}

		author := &entity.Author{Name: "A"}
		author.SetRelatedIDs([]int64{10, 11})

		res, err := dataset.Add(ctx, ds, author)
		require.NoError(t, err)
		assert.Equal(t, result.ForeignKeyConstraintFails, res.Status)
		assert.Zero(t, author.ID, "failed add leaves the entity unsaved")
		assert.Zero(t, storedCount(t, ds.Store(), "authors"), "the whole insert rolled back")

		assert.Equal(t, 1, dataset.PruneRelated(ds, author))
		assert.Equal(t, []int64{10}, author.RelatedIDs())

		res, err = dataset.Add(ctx, ds, author)
		require.NoError(t, err)
		assert.Equal(t, result.Success, res.Status)

		var bookID int64
		require.NoError(t, ds.Store().DB().QueryRow(
			"SELECT book_id FROM author_books WHERE author_id = ?", author.ID).Scan(&bookID))
		assert.Equal(t, int64(10), bookID)

		books := dataset.BooksOf(ds, author)
		require.Len(t, books, 1)
		assert.Equal(t, int64(10), books[0].ID)
	})
}

func TestUpdate_ReplacesLinks(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)

		b1 := &entity.Book{Title: "One"}
		b2 := &entity.Book{Title: "Two"}
		mustAdd(t, ds, b1)
		mustAdd(t, ds, b2)

		a := &entity.Author{Name: "A"}
		a.SetRelatedIDs([]int64{b1.ID})
		mustAdd(t, ds, a)

		a.SetRelatedIDs([]int64{b2.ID})
		res, err := dataset.Update(ctx, ds, a)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())

		require.NoError(t, ds.Load(ctx))
		reloaded, ok := dataset.GetByID[entity.Author](ds, a.ID)
		require.True(t, ok)
		assert.Equal(t, []int64{b2.ID}, reloaded.RelatedIDs())
		assert.Equal(t, int32(1), reloaded.Version)

		book, ok := dataset.GetByID[entity.Book](ds, b2.ID)
		require.True(t, ok)
		assert.Equal(t, []int64{a.ID}, book.RelatedIDs(), "the other side sees the link")
	})
}

func TestRemove_CascadesLinks(t *testing.T) {
	ctx := context.Background()
	ds := newDataset(t, "sqlite3")
	b := &entity.Book{Title: "One"}
	mustAdd(t, ds, b)
	a := &entity.Author{Name: "A"}
	a.SetRelatedIDs([]int64{b.ID})
	mustAdd(t, ds, a)

	res, err := dataset.Remove(ctx, ds, b)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Zero(t, storedCount(t, ds.Store(), "author_books"))
}

func TestAdd_DuplicateEntry(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)
		mustAdd(t, ds, entity.NewCategory("Dairy", true))

		dup := entity.NewCategory("Dairy", false)
		assert.True(t, dataset.ExistsOther(ds, dup))

		res, err := dataset.Add(ctx, ds, dup)
		require.NoError(t, err)
		assert.Equal(t, result.DuplicateEntry, res.Status)
		assert.Same(t, dup, res.Value)
		assert.Equal(t, 1, dataset.Count[entity.Category](ds))
	})
}

func TestAdd_DataTooLong(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ds := newDataset(t, driver)
		res, err := dataset.Add(context.Background(), ds, &entity.Store{Name: strings.Repeat("x", 300)})
		require.NoError(t, err)
		assert.Equal(t, result.DataTooLong, res.Status)
	})
}

func TestAdd_ValidationError(t *testing.T) {
	ds := newDataset(t, "sqlite3")

	_, err := dataset.Add(context.Background(), ds, &entity.Product{Name: "Milk"})
	var verr *dataset.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, entity.KindProduct, verr.Kind)
	assert.Equal(t, []string{"CategoryID"}, verr.Fields)
	assert.Zero(t, storedCount(t, ds.Store(), "products"))
}

func TestRemove_ReferencedRow(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		ds := newDataset(t, driver)
		cat, _, _, _ := seedPrice(t, ds)

		res, err := dataset.Remove(ctx, ds, cat)
		require.NoError(t, err)
		assert.Equal(t, result.ForeignKeyConstraintFails, res.Status)
		assert.True(t, dataset.ExistsByID[entity.Category](ds, cat.ID))
	})
}

func TestAdd_PriceReadsComputedUnitPrice(t *testing.T) {
	testutil.EachDriver(t, func(t *testing.T, driver string) {
		ds := newDataset(t, driver)
		_, _, _, price := seedPrice(t, ds)

		require.NotNil(t, price.UnitPrice)
		assert.InDelta(t, 150.0, *price.UnitPrice, 1e-9)
	})
}
