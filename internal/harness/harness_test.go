package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prices/internal/testutil"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			res, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestScenarios_BothDrivers(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "range_remove_stale.yaml"))
	require.NoError(t, err)

	testutil.EachDriver(t, func(t *testing.T, driver string) {
		res, err := Run(context.Background(), scenario, WithDriver(driver))
		require.NoError(t, err)
		assert.True(t, res.Pass, "errors: %v", res.Errors)
		assert.Len(t, res.Trace, 9)
	})
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "dairy_versions.yaml"))
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_ReportsStatusMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectation
steps:
  - op: add
    kind: store
    ref: corner
    fields: { name: Corner }
    expect: DuplicateEntry
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "expected DuplicateEntry, got Success")
	assert.Equal(t, "Success", res.Trace[0].Status)
}

func TestRun_ReportsCountMismatch(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_count
steps:
  - { op: add, kind: store, ref: a, fields: { name: A } }
  - { op: remove_range, refs: [a], count: 3 }
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Contains(t, res.Errors[0], "expected count 3, got 1")
}

func TestRun_ValidationFailureIsUnknown(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: nameless
steps:
  - { op: add, kind: product, ref: p, fields: { category_id: 1 }, expect: Unknown }
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
}

func TestRun_MixedRangeIsUnknown(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: mixed
steps:
  - { op: add, kind: store, ref: s, fields: { name: S } }
  - { op: add, kind: category, ref: c, fields: { name: C } }
  - { op: remove_range, refs: [s, c], expect: Unknown }
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
}

func TestAssertions_Failures(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing_assertions
steps:
  - { op: add, kind: store, ref: s, fields: { name: S } }
assertions:
  - { type: cache_count, kind: store, count: 2 }
  - { type: stored_count, kind: store, count: 0 }
  - { type: next_id, kind: store, id: 1 }
  - { type: record, ref: s, expect: { name: T } }
  - { type: record, ref: s, expect: { colour: red } }
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 5)
	assert.Contains(t, res.Errors[0], "expected 2 cached store, got 1")
	assert.Contains(t, res.Errors[1], "expected 0 stored store, got 1")
	assert.Contains(t, res.Errors[2], "expected next store id 1, got 2")
	assert.Contains(t, res.Errors[3], `field "name": expected T, got S`)
	assert.Contains(t, res.Errors[4], `field "colour": missing`)
}

func TestMatchFields_NumbersCompareAcrossYAMLAndJSON(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: numbers
steps:
  - { op: add, kind: price, ref: p, fields: { product_id: 1, store_id: 1, price: 300, quantity: 2, confirmed: "2024-05-01T00:00:00Z" }, expect: ForeignKeyConstraintFails }
assertions:
  - { type: record, ref: p, expect: { price: 300, quantity: 2, id: 0 } }
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
}
