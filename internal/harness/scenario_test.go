package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "author_fk_prune.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "author_fk_prune", s.Name)
	assert.Equal(t, "test-session-authors", s.Session)
	require.Len(t, s.Steps, 6)
	assert.Equal(t, OpAdd, s.Steps[1].Op)
	assert.Equal(t, "ForeignKeyConstraintFails", s.Steps[1].Expect)
	assert.Equal(t, []any{1, 2}, s.Steps[1].Fields["related_ids"])
	require.NotNil(t, s.Steps[2].Count)
	assert.Equal(t, 1, *s.Steps[2].Count)
	assert.Empty(t, s.Steps[3].Kind)
	require.Len(t, s.Assertions, 5)
	assert.Equal(t, int64(1), s.Assertions[4].ID)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\nstep: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "steps:\n  - { op: load }\n",
			want: "name is required",
		},
		{
			name: "no steps",
			yaml: "name: x\n",
			want: "steps must not be empty",
		},
		{
			name: "unknown op",
			yaml: "name: x\nsteps:\n  - { op: upsert }\n",
			want: `unknown op "upsert"`,
		},
		{
			name: "unknown kind",
			yaml: "name: x\nsteps:\n  - { op: add, kind: widget, ref: w }\n",
			want: `unknown kind "widget"`,
		},
		{
			name: "add without ref",
			yaml: "name: x\nsteps:\n  - { op: add, kind: store }\n",
			want: "ref is required for add",
		},
		{
			name: "unbound ref",
			yaml: "name: x\nsteps:\n  - { op: remove, ref: ghost }\n",
			want: `ref "ghost" is not bound`,
		},
		{
			name: "re-add of unbound ref",
			yaml: "name: x\nsteps:\n  - { op: add, ref: ghost }\n",
			want: `ref "ghost" is not bound`,
		},
		{
			name: "copy without as",
			yaml: "name: x\nsteps:\n  - { op: add, kind: store, ref: s }\n  - { op: copy, ref: s }\n",
			want: "as is required for copy",
		},
		{
			name: "empty range",
			yaml: "name: x\nsteps:\n  - { op: remove_range }\n",
			want: "refs is required for remove_range",
		},
		{
			name: "unknown status",
			yaml: "name: x\nsteps:\n  - { op: load, expect: Exploded }\n",
			want: `unknown status "Exploded"`,
		},
		{
			name: "unknown assertion",
			yaml: "name: x\nsteps:\n  - { op: load }\nassertions:\n  - { type: trace_order }\n",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "record without expect",
			yaml: "name: x\nsteps:\n  - { op: add, kind: store, ref: s }\nassertions:\n  - { type: record, ref: s }\n",
			want: "expect is required for record",
		},
		{
			name: "count with bad kind",
			yaml: "name: x\nsteps:\n  - { op: load }\nassertions:\n  - { type: cache_count, kind: widget }\n",
			want: `unknown kind "widget"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
