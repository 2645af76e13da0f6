// Package harness runs YAML scenarios against a fresh price database.
//
// A scenario drives the dataset operations step by step, checks the status
// each step returns, and finishes with assertions on the cache and on
// storage. The outcome of every step is recorded in a trace that tests
// compare against golden files.
//
// # Scenario Format
//
//	name: dairy_versions
//	description: "A stale copy cannot overwrite a newer version"
//	session: test-session-dairy
//	steps:
//	  - op: add
//	    kind: category
//	    ref: dairy
//	    fields: { name: Dairy, tax_rate: 0.08 }
//	  - op: copy
//	    ref: dairy
//	    as: stale
//	  - op: update
//	    ref: dairy
//	    fields: { name: Dairy2 }
//	  - op: update
//	    ref: stale
//	    expect: VersionMismatch
//	assertions:
//	  - type: record
//	    ref: dairy
//	    expect: { name: Dairy2, version: 1 }
//	  - type: stored_count
//	    kind: category
//	    count: 1
//
// # Steps
//
//   - add: builds a record of kind from fields and adds it under ref;
//     without kind, re-adds the record bound to ref
//   - update: overlays fields onto ref and updates it
//   - remove: removes ref
//   - remove_range: removes refs together; count checks how many went
//   - copy: stores a deep copy of ref under as
//   - load: reloads the dataset and rebinds every ref to its reloaded instance
//   - prune: drops related ids of ref that are not cached; count checks how many
//
// expect names the status a step must return and defaults to Success.
//
// # Assertion Types
//
//   - cache_count: number of cached records of kind
//   - stored_count: number of stored rows of kind
//   - next_id: identity the next insert of kind receives
//   - record: subset match of ref's fields, by JSON name
//
// Each run opens its own in-memory SQLite database with a fixed session id,
// so identical scenarios produce identical traces.
package harness
