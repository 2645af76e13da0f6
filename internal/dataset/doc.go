// Package dataset is the in-memory snapshot of every entity plus the
// operations that change both storage and the snapshot.
//
// A Dataset is created empty. Initialize performs the first Load; Load
// reads every table inside one transaction and swaps the snapshot only when
// all of them were read. Concurrent Load callers share one in-flight load.
//
// Entities in the snapshot are mutated in place by Update, so callers
// holding a pointer observe the change without re-reading. Add, Update and
// Remove return a result.Result; timeouts and deadlocks are returned as
// errors from package store instead.
//
// Operations are generic over the entity type and infer it from the
// argument or type parameter:
//
//	res, err := dataset.Add(ctx, ds, entity.NewCategory("Dairy", true))
//	cat, ok := dataset.GetByID[entity.Category](ds, 1)
package dataset
