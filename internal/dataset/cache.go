package dataset

import (
	"slices"

	"github.com/roach88/prices/internal/entity"
)

// listOf returns the cached list of T. The caller holds d.mu.
func listOf[T any, P entity.Model[T]](d *Dataset) []*T {
	list, _ := d.lists[P(new(T)).Kind()].([]*T)
	return list
}

// setList replaces the cached list of T. The caller holds d.mu for writing.
func setList[T any, P entity.Model[T]](d *Dataset, list []*T) {
	d.lists[P(new(T)).Kind()] = list
}

// cacheAdd appends item to the cached list. A reload that already picked
// up the row leaves one entry, updated from item.
func cacheAdd[T any, P entity.Model[T]](d *Dataset, item *T) {
	id := P(item).Header().ID
	d.mu.Lock()
	list := listOf[T, P](d)
	i := slices.IndexFunc(list, func(rec *T) bool { return P(rec).Header().ID == id })
	if i >= 0 {
		P(item).CopyTo(list[i])
	} else {
		setList[T, P](d, append(list, item))
	}
	d.mu.Unlock()
	observe[T, P](d)
}

// cacheUpdate copies item onto its cached entry when the caller holds a
// different instance than the cache.
func cacheUpdate[T any, P entity.Model[T]](d *Dataset, item *T) {
	id := P(item).Header().ID
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cached := range listOf[T, P](d) {
		if P(cached).Header().ID == id && cached != item {
			P(item).CopyTo(cached)
		}
	}
}

// cacheRemove drops the entries whose ids are listed.
func cacheRemove[T any, P entity.Model[T]](d *Dataset, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	d.mu.Lock()
	list := slices.DeleteFunc(slices.Clone(listOf[T, P](d)), func(rec *T) bool {
		return slices.Contains(ids, P(rec).Header().ID)
	})
	setList[T, P](d, list)
	d.mu.Unlock()
	observe[T, P](d)
}
