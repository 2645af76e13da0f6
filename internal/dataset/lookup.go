package dataset

import (
	"slices"

	"github.com/roach88/prices/internal/entity"
)

// List returns the cached entities of type T in load order. The slice is a
// copy; the entities are the cached instances.
func List[T any, P entity.Model[T]](d *Dataset) []*T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(listOf[T, P](d))
}

// Count returns the number of cached entities of type T.
func Count[T any, P entity.Model[T]](d *Dataset) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(listOf[T, P](d))
}

// GetByID returns the cached entity with the given id.
func GetByID[T any, P entity.Model[T]](d *Dataset, id int64) (*T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, rec := range listOf[T, P](d) {
		if P(rec).Header().ID == id {
			return rec, true
		}
	}
	return nil, false
}

// ExistsByID reports whether an entity with the given id is cached.
func ExistsByID[T any, P entity.Model[T]](d *Dataset, id int64) bool {
	_, ok := GetByID[T, P](d, id)
	return ok
}

// GetByName returns the cached entity whose unique key is key.
// Prices have no unique key and are never found.
func GetByName[T any, P entity.Model[T]](d *Dataset, key string) (*T, bool) {
	if key == "" {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, rec := range listOf[T, P](d) {
		if P(rec).UniqueKey() == key {
			return rec, true
		}
	}
	return nil, false
}

// GetOther returns a cached entity other than item that shares its unique
// key, the entity a write of item would collide with.
func GetOther[T any, P entity.Model[T]](d *Dataset, item *T) (*T, bool) {
	key := P(item).UniqueKey()
	if key == "" {
		return nil, false
	}
	id := P(item).Header().ID
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, rec := range listOf[T, P](d) {
		if P(rec).Header().ID != id && P(rec).UniqueKey() == key {
			return rec, true
		}
	}
	return nil, false
}

// ExistsOther reports whether GetOther finds a collision.
func ExistsOther[T any, P entity.Model[T]](d *Dataset, item *T) bool {
	_, ok := GetOther[T, P](d, item)
	return ok
}
