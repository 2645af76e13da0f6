package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/prices/internal/entity"
)

// evaluate checks every assertion and returns the mismatches.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := h.check(ctx, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return errs
}

func (h *Harness) check(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertCacheCount:
		op, err := h.ds.Operator(a.Kind)
		if err != nil {
			return err
		}
		if got := len(op.List()); got != a.Count {
			return fmt.Errorf("expected %d cached %s, got %d", a.Count, a.Kind, got)
		}
	case AssertStoredCount:
		got, err := h.storedCount(ctx, a.Kind)
		if err != nil {
			return err
		}
		if got != a.Count {
			return fmt.Errorf("expected %d stored %s, got %d", a.Count, a.Kind, got)
		}
	case AssertNextID:
		op, err := h.ds.Operator(a.Kind)
		if err != nil {
			return err
		}
		got, err := h.ds.Store().NextID(ctx, op.Table())
		if err != nil {
			return err
		}
		if got != a.ID {
			return fmt.Errorf("expected next %s id %d, got %d", a.Kind, a.ID, got)
		}
	case AssertRecord:
		rec, ok := h.refs[a.Ref]
		if !ok {
			return fmt.Errorf("no record bound to %q", a.Ref)
		}
		return matchFields(rec, a.Expect)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func (h *Harness) storedCount(ctx context.Context, kind string) (int, error) {
	op, err := h.ds.Operator(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = h.ds.Store().DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+op.Table()).Scan(&n)
	return n, err
}

// matchFields compares expected values against rec's JSON encoding.
// Both sides go through JSON so YAML integers compare equal to numbers.
func matchFields(rec entity.Record, expect map[string]any) error {
	actual, err := jsonObject(rec)
	if err != nil {
		return err
	}
	want, err := jsonObject(expect)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			return fmt.Errorf("field %q: missing", k)
		}
		if !reflect.DeepEqual(got, want[k]) {
			return fmt.Errorf("field %q: expected %v, got %v", k, want[k], got)
		}
	}
	return nil
}

func jsonObject(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
