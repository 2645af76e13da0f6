package entity

import (
	"encoding/json"
	"fmt"
	"slices"
)

// New returns an empty record of the given kind.
func New(kind string) (Record, error) {
	switch kind {
	case KindCategory:
		return NewCategory("", false), nil
	case KindProduct:
		return &Product{}, nil
	case KindStore:
		return &Store{}, nil
	case KindPrice:
		return &Price{}, nil
	case KindAuthor:
		return &Author{}, nil
	case KindBook:
		return &Book{}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q (want one of %v)", kind, Kinds)
	}
}

// ValidKind reports whether kind names an entity.
func ValidKind(kind string) bool {
	return slices.Contains(Kinds, kind)
}

// Apply overlays fields, keyed by their JSON names, onto rec.
// Fields not present are left unchanged. The shared columns id, version,
// created and modified are not settable this way.
func Apply(rec Record, fields map[string]any) error {
	for _, k := range []string{"id", "version", "created", "modified"} {
		if _, ok := fields[k]; ok {
			return fmt.Errorf("apply %s: field %q is not settable", rec.Kind(), k)
		}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("apply %s: %w", rec.Kind(), err)
	}
	if err := json.Unmarshal(b, rec); err != nil {
		return fmt.Errorf("apply %s: %w", rec.Kind(), err)
	}
	return nil
}
