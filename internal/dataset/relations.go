package dataset

import (
	"github.com/roach88/prices/internal/entity"
)

// BooksOf resolves the author's related ids against the cached books.
// Ids with no cached book are skipped.
func BooksOf(d *Dataset, a *entity.Author) []*entity.Book {
	return resolve[entity.Book](d, a.RelatedIDs())
}

// AuthorsOf resolves the book's related ids against the cached authors.
func AuthorsOf(d *Dataset, b *entity.Book) []*entity.Author {
	return resolve[entity.Author](d, b.RelatedIDs())
}

// CategoryOf returns the cached category of p.
func CategoryOf(d *Dataset, p *entity.Product) (*entity.Category, bool) {
	return GetByID[entity.Category](d, p.CategoryID)
}

// ProductOf returns the cached product of p.
func ProductOf(d *Dataset, p *entity.Price) (*entity.Product, bool) {
	return GetByID[entity.Product](d, p.ProductID)
}

// StoreOf returns the cached store of p.
func StoreOf(d *Dataset, p *entity.Price) (*entity.Store, bool) {
	return GetByID[entity.Store](d, p.StoreID)
}

// BookInterest is the highest interest among the book's authors.
func BookInterest(d *Dataset, b *entity.Book) int {
	best := 0
	for _, a := range AuthorsOf(d, b) {
		best = max(best, a.InterestValue())
	}
	return best
}

func resolve[T any, P entity.Model[T]](d *Dataset, ids []int64) []*T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := listOf[T, P](d)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		for _, rec := range list {
			if P(rec).Header().ID == id {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// PruneRelated drops the related ids of rec that name no cached entity on
// the other side, and returns how many were dropped. Collaborators call it
// after a ForeignKeyConstraintFails report, then retry the write.
func PruneRelated(d *Dataset, rec entity.Related) int {
	var exists func(int64) bool
	switch rec.(type) {
	case *entity.Author:
		exists = func(id int64) bool { return ExistsByID[entity.Book](d, id) }
	case *entity.Book:
		exists = func(id int64) bool { return ExistsByID[entity.Author](d, id) }
	default:
		return 0
	}

	ids := rec.RelatedIDs()
	kept := make([]int64, 0, len(ids))
	for _, id := range ids {
		if exists(id) {
			kept = append(kept, id)
		}
	}
	rec.SetRelatedIDs(kept)
	return len(ids) - len(kept)
}

// ReferenceCount returns how many cached entities depend on rec:
//   - category: its products
//   - product: its prices
//   - store: its prices
//   - price: the prices of the same product
//   - author, book: the cached entities on the other side
func ReferenceCount(d *Dataset, rec entity.Record) int {
	switch r := rec.(type) {
	case *entity.Category:
		return countWhere(d, func(p *entity.Product) bool { return p.CategoryID == r.ID })
	case *entity.Product:
		return countWhere(d, func(p *entity.Price) bool { return p.ProductID == r.ID })
	case *entity.Store:
		return countWhere(d, func(p *entity.Price) bool { return p.StoreID == r.ID })
	case *entity.Price:
		return countWhere(d, func(p *entity.Price) bool { return p.ProductID == r.ProductID })
	case *entity.Author:
		return len(BooksOf(d, r))
	case *entity.Book:
		return len(AuthorsOf(d, r))
	}
	return 0
}

func countWhere[T any, P entity.Model[T]](d *Dataset, match func(*T) bool) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, rec := range listOf[T, P](d) {
		if match(rec) {
			n++
		}
	}
	return n
}
