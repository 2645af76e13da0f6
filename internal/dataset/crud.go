package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/prices/internal/entity"
	"github.com/roach88/prices/internal/result"
	"github.com/roach88/prices/internal/schema"
	"github.com/roach88/prices/internal/store"
)

// Add inserts item and appends it to the cache.
//
// item is stored as a new entity at version 0, whatever header it carries.
// The generated id, version, creation stamps and computed columns are
// written back onto item. A relational pair also gets one join row per related id; an
// id pointing at no row fails the whole insert with
// ForeignKeyConstraintFails (see PruneRelated).
func Add[T any, P entity.Model[T]](ctx context.Context, d *Dataset, item *T) (result.Result[*T], error) {
	if err := Validate[T, P](item); err != nil {
		return result.Fail(result.Unknown, item), err
	}
	p := P(item)
	table := p.Table()

	res, err := store.RunInTransaction(ctx, d.store, "add "+p.Kind(), func(tx *store.Tx) (result.Result[*T], error) {
		rec := p.Clone()
		hdr := P(rec).Header()
		hdr.Version = 0
		hdr.Created, hdr.Modified = time.Time{}, time.Time{}
		err := tx.QueryRow(ctx, table.InsertSQL(), table.Params(rec, schema.NoIndex)).
			Scan(table.ReturningDest(rec)...)
		if err != nil {
			return result.Result[*T]{}, err
		}
		if P(rec).Header().ID <= 0 {
			return result.Result[*T]{}, store.Fail(result.MissingEntry, "insert into %s returned no id", table.Name)
		}
		if err := insertLinks(ctx, tx, table, rec, P(rec).Header().ID); err != nil {
			return result.Result[*T]{}, err
		}
		return result.Ok(rec), nil
	})
	if err != nil || res.IsFailure() {
		return failed(res, err, item)
	}

	P(res.Value).CopyTo(item)
	cacheAdd[T, P](d, item)
	return result.Ok(item), nil
}

// Update writes item over its stored row and increments its version.
//
// The stored version is read first: a caller holding a stale copy gets
// VersionMismatch and storage is left untouched. A relational pair has its
// join rows replaced by the current related ids. On success item and its
// cached entry carry the new version and modification stamp.
func Update[T any, P entity.Model[T]](ctx context.Context, d *Dataset, item *T) (result.Result[*T], error) {
	if err := Validate[T, P](item); err != nil {
		return result.Fail(result.Unknown, item), err
	}
	p := P(item)
	table := p.Table()

	res, err := store.RunInTransaction(ctx, d.store, "update "+p.Kind(), func(tx *store.Tx) (result.Result[*T], error) {
		rec := p.Clone()
		hdr := P(rec).Header()
		if err := checkVersion(ctx, tx, table.VersionSQL(), hdr); err != nil {
			return result.Result[*T]{}, err
		}

		if rel := table.Relation; rel != nil {
			if _, err := tx.Exec(ctx, rel.DeleteLinksSQL(), keyParams(hdr.ID)); err != nil {
				return result.Result[*T]{}, err
			}
			if err := insertLinks(ctx, tx, table, rec, hdr.ID); err != nil {
				return result.Result[*T]{}, err
			}
		}

		hdr.Version++
		r, err := tx.Exec(ctx, table.UpdateSQL(), table.Params(rec, schema.NoIndex))
		if err != nil {
			return result.Result[*T]{}, err
		}
		if n, err := r.RowsAffected(); err != nil {
			return result.Result[*T]{}, err
		} else if n == 0 {
			return result.Result[*T]{}, store.Fail(result.MissingEntry, "%s %d vanished", p.Kind(), hdr.ID)
		}

		if err := tx.QueryRow(ctx, table.StampSQL(), keyParams(hdr.ID)).Scan(table.ReturningDest(rec)...); err != nil {
			return result.Result[*T]{}, err
		}
		return result.Ok(rec), nil
	})
	if err != nil || res.IsFailure() {
		return failed(res, err, item)
	}

	P(res.Value).CopyTo(item)
	cacheUpdate[T, P](d, item)
	return result.Ok(item), nil
}

// Remove deletes item when its version still matches storage, then drops it
// from the cache. Join rows go with it by cascade.
func Remove[T any, P entity.Model[T]](ctx context.Context, d *Dataset, item *T) (result.Result[*T], error) {
	p := P(item)
	table := p.Table()
	id := p.Header().ID

	res, err := store.RunInTransaction(ctx, d.store, "remove "+p.Kind(), func(tx *store.Tx) (result.Result[*T], error) {
		if err := checkVersion(ctx, tx, table.VersionSQL(), p.Header()); err != nil {
			return result.Result[*T]{}, err
		}
		r, err := tx.Exec(ctx, table.DeleteSQL(), keyParams(id))
		if err != nil {
			return result.Result[*T]{}, err
		}
		if n, err := r.RowsAffected(); err != nil {
			return result.Result[*T]{}, err
		} else if n == 0 {
			return result.Result[*T]{}, store.Fail(result.MissingEntry, "%s %d vanished", p.Kind(), id)
		}
		return result.Ok(item), nil
	})
	if err != nil || res.IsFailure() {
		return failed(res, err, item)
	}

	cacheRemove[T, P](d, id)
	d.reclaim(ctx, table.Name)
	return res, nil
}

// Removal is the outcome of RemoveRange, split by what storage holds
// afterwards. The caller's selection and the cache are kept apart: the cache
// drops Removed, the caller may act again on Remaining.
type Removal[T any] struct {
	// Removed are the requested entities no longer stored.
	Removed []*T
	// Remaining are the requested entities still stored, stale copies included.
	Remaining []*T
}

// RemoveRange deletes every item whose version matches storage in one
// transaction. Stale items are skipped, not deleted.
//
// The transaction commits even when the status is a failure. The status is
// VersionMismatch if any item was stale, otherwise MissingEntry if any item
// was already gone, otherwise Success. What is left is re-read after the
// delete, so a concurrent writer is reflected rather than assumed away.
func RemoveRange[T any, P entity.Model[T]](ctx context.Context, d *Dataset, items []*T) (result.Result[Removal[T]], error) {
	if len(items) == 0 {
		return result.Ok(Removal[T]{}), nil
	}
	table := P(new(T)).Table()
	kind := P(new(T)).Kind()

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = P(item).Header().ID
	}

	res, err := store.RunInTransaction(ctx, d.store, "remove range "+kind, func(tx *store.Tx) (result.Result[Removal[T]], error) {
		in, params := schema.ListParams("id", ids)
		stored, err := readVersions(ctx, tx, table.VersionsSQL(in), params)
		if err != nil {
			return result.Result[Removal[T]]{}, err
		}

		status := result.Success
		var deletable []int64
		for _, item := range items {
			hdr := P(item).Header()
			version, found := stored[hdr.ID]
			switch {
			case !found:
				if status == result.Success {
					status = result.MissingEntry
				}
			case version != hdr.Version:
				status = result.VersionMismatch
			default:
				deletable = append(deletable, hdr.ID)
			}
		}

		if len(deletable) > 0 {
			din, dparams := schema.ListParams("del", deletable)
			if _, err := tx.Exec(ctx, table.DeleteInSQL(din), dparams); err != nil {
				return result.Result[Removal[T]]{}, err
			}
		}

		left, err := readVersions(ctx, tx, table.VersionsSQL(in), params)
		if err != nil {
			return result.Result[Removal[T]]{}, err
		}
		var removal Removal[T]
		for _, item := range items {
			if _, ok := left[P(item).Header().ID]; ok {
				removal.Remaining = append(removal.Remaining, item)
			} else {
				removal.Removed = append(removal.Removed, item)
			}
		}
		return result.Fail(status, removal), nil
	})
	if err != nil {
		return failed(res, err, Removal[T]{})
	}

	removed := make([]int64, 0, len(res.Value.Removed))
	for _, item := range res.Value.Removed {
		removed = append(removed, P(item).Header().ID)
	}
	cacheRemove[T, P](d, removed...)
	if len(removed) > 0 {
		d.reclaim(ctx, table.Name)
	}
	return res, nil
}

// reclaim resets the table's identity counter once it is empty. It runs
// after the deleting transaction has committed; a failure is logged only.
func (d *Dataset) reclaim(ctx context.Context, table string) {
	if _, err := d.store.Reclaim(ctx, table); err != nil {
		d.logger.Warn("auto-increment reclaim failed", "table", table, "err", err)
	}
}

// failed reports a rejected or escalated operation on v.
func failed[T any](res result.Result[T], err error, v T) (result.Result[T], error) {
	status := res.Status
	if err != nil {
		status = store.StatusOf(err)
	}
	return result.Fail(status, v), err
}

func keyParams(id int64) map[string]any {
	return map[string]any{schema.KeyColumn: id}
}

// checkVersion compares the stored version of hdr's row with hdr.Version.
// A missing row surfaces as sql.ErrNoRows, classified MissingEntry.
func checkVersion(ctx context.Context, tx *store.Tx, query string, hdr *entity.Base) error {
	var stored int32
	if err := tx.QueryRow(ctx, query, keyParams(hdr.ID)).Scan(&stored); err != nil {
		return err
	}
	if stored != hdr.Version {
		return store.Fail(result.VersionMismatch, "stored version %d, have %d", stored, hdr.Version)
	}
	return nil
}

func readVersions(ctx context.Context, tx *store.Tx, query string, params map[string]any) (map[int64]int32, error) {
	rows, err := tx.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make(map[int64]int32)
	for rows.Next() {
		var (
			id      int64
			version int32
		)
		if err := rows.Scan(&id, &version); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions[id] = version
	}
	return versions, rows.Err()
}

// insertLinks writes one join row per related id of rec, owned by own.
func insertLinks[T any](ctx context.Context, tx *store.Tx, table *schema.Table[T], rec *T, own int64) error {
	if table.Relation == nil {
		return nil
	}
	ids := *table.Related(rec)
	if len(ids) == 0 {
		return nil
	}

	links := make([]*schema.Link, len(ids))
	for i, other := range ids {
		links[i] = &schema.Link{Own: own, Other: other}
	}
	lt := table.Relation.Links()
	_, err := tx.Exec(ctx, lt.InsertRowsSQL(len(links)), lt.RowParams(links))
	return err
}
