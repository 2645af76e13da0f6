package dataset

import (
	"fmt"
	"strings"

	"github.com/roach88/prices/internal/entity"
)

// ValidationError lists the required fields an entity leaves empty.
// Invalid entities never reach storage.
type ValidationError struct {
	Kind   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Kind, strings.Join(e.Fields, ", "))
}

// Validate returns a *ValidationError when a required, persisted field of
// item holds its default value.
func Validate[T any, P entity.Model[T]](item *T) error {
	p := P(item)
	if missing := p.Table().Missing(item); len(missing) > 0 {
		return &ValidationError{Kind: p.Kind(), Fields: missing}
	}
	return nil
}
